package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"medbank/internal/model"
	"medbank/internal/service"
	"medbank/internal/transport/rest/middleware"
)

// QuestionHandler handles question CRUD endpoints
type QuestionHandler struct {
	questionSvc *service.QuestionService
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(questionSvc *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionSvc: questionSvc}
}

// QuestionRequest is the request body for creating or updating a question
type QuestionRequest struct {
	ThemeID    string   `json:"themeId"`
	SubthemeID string   `json:"subthemeId,omitempty"`
	GroupID    string   `json:"groupId,omitempty"`
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	Options    []string `json:"options,omitempty"`
	CorrectIdx int      `json:"correctIdx"`
}

// Create handles POST /v1/questions
func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, err := h.questionSvc.Create(r.Context(), &model.Question{
		TenantID:   middleware.GetTenantID(r.Context()),
		ThemeID:    req.ThemeID,
		SubthemeID: req.SubthemeID,
		GroupID:    req.GroupID,
		Title:      req.Title,
		Text:       req.Text,
		Options:    req.Options,
		CorrectIdx: req.CorrectIdx,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidTaxonomy) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, q)
}

// Get handles GET /v1/questions/{questionId}
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.questionSvc.Get(r.Context(), mux.Vars(r)["questionId"])
	if err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, q)
}

// Update handles PUT /v1/questions/{questionId}
func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, err := h.questionSvc.Update(r.Context(), &model.Question{
		ID:         mux.Vars(r)["questionId"],
		ThemeID:    req.ThemeID,
		SubthemeID: req.SubthemeID,
		GroupID:    req.GroupID,
		Title:      req.Title,
		Text:       req.Text,
		Options:    req.Options,
		CorrectIdx: req.CorrectIdx,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuestionNotFound):
			writeError(w, http.StatusNotFound, "question not found")
		case errors.Is(err, service.ErrInvalidTaxonomy):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, q)
}

// ListThemes handles GET /v1/taxonomy/themes
func (h *QuestionHandler) ListThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.questionSvc.ListThemes(r.Context(), middleware.GetTenantID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if themes == nil {
		themes = []*model.Theme{}
	}
	writeJSON(w, http.StatusOK, themes)
}

// Delete handles DELETE /v1/questions/{questionId}
func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.questionSvc.Delete(r.Context(), mux.Vars(r)["questionId"]); err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
