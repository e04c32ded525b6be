package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"medbank/internal/service"
	"medbank/internal/transport/rest/middleware"
)

// QuizHandler serves materialized quizzes and session progress
type QuizHandler struct {
	quizSvc *service.QuizService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizSvc *service.QuizService) *QuizHandler {
	return &QuizHandler{quizSvc: quizSvc}
}

// ProgressRequest is the request body for saving session progress
type ProgressRequest struct {
	CurrentIndex int      `json:"currentIndex"`
	Answers      []int    `json:"answers"`
	Feedback     []string `json:"feedback,omitempty"`
	IsComplete   bool     `json:"isComplete"`
}

// Get handles GET /v1/quizzes/{quizId}
func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	quiz, session, err := h.quizSvc.Get(r.Context(),
		middleware.GetTenantID(r.Context()),
		middleware.GetUserID(r.Context()),
		mux.Vars(r)["quizId"],
	)
	if err != nil {
		if errors.Is(err, service.ErrQuizNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quiz":    quiz,
		"session": session,
	})
}

// SaveProgress handles PUT /v1/sessions/{sessionId}
func (h *QuizHandler) SaveProgress(w http.ResponseWriter, r *http.Request) {
	var req ProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.quizSvc.SaveProgress(r.Context(),
		middleware.GetTenantID(r.Context()),
		middleware.GetUserID(r.Context()),
		mux.Vars(r)["sessionId"],
		req.CurrentIndex, req.Answers, req.Feedback, req.IsComplete,
	)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, session)
}
