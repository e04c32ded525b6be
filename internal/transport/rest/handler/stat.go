package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"medbank/internal/service"
	"medbank/internal/transport/rest/middleware"
)

// StatHandler handles answer and bookmark endpoints
type StatHandler struct {
	statSvc *service.StatService
}

// NewStatHandler creates a new stat handler
func NewStatHandler(statSvc *service.StatService) *StatHandler {
	return &StatHandler{statSvc: statSvc}
}

// AnswerRequest is the request body for recording an answer
type AnswerRequest struct {
	Correct bool `json:"correct"`
}

// RecordAnswer handles POST /v1/questions/{questionId}/answer
func (h *StatHandler) RecordAnswer(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stat, err := h.statSvc.RecordAnswer(r.Context(),
		middleware.GetTenantID(r.Context()), userID, mux.Vars(r)["questionId"], req.Correct)
	if err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stat)
}

// ToggleBookmark handles POST /v1/questions/{questionId}/bookmark
func (h *StatHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	bookmarked, err := h.statSvc.ToggleBookmark(r.Context(),
		middleware.GetTenantID(r.Context()), userID, mux.Vars(r)["questionId"])
	if err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"bookmarked": bookmarked})
}

// GetCounts handles GET /v1/stats/counts
func (h *StatHandler) GetCounts(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	counts, err := h.statSvc.GetCounts(r.Context(), middleware.GetTenantID(r.Context()), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, counts)
}
