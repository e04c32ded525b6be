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

// JobHandler handles quiz creation job endpoints
type JobHandler struct {
	jobSvc *service.JobService
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobSvc *service.JobService) *JobHandler {
	return &JobHandler{jobSvc: jobSvc}
}

// CreateQuizJobRequest is the request body for starting a quiz
// creation job. The ancestry maps let the workflow resolve overrides
// without extra taxonomy lookups.
type CreateQuizJobRequest struct {
	Name            string             `json:"name"`
	Description     string             `json:"description,omitempty"`
	TestMode        bool               `json:"testMode"`
	QuestionMode    model.QuestionMode `json:"questionMode"`
	NumQuestions    int                `json:"numQuestions"`
	Filters         model.QuizFilters  `json:"filters"`
	GroupToSubtheme map[string]string  `json:"groupToSubtheme,omitempty"`
	SubthemeToTheme map[string]string  `json:"subthemeToTheme,omitempty"`
}

// Create handles POST /v1/quizzes/jobs
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateQuizJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	jobID, workflowID, err := h.jobSvc.CreateWithWorkflow(r.Context(), middleware.GetTenantID(r.Context()), userID, model.QuizRequest{
		Name:            req.Name,
		Description:     req.Description,
		TestMode:        req.TestMode,
		Mode:            req.QuestionMode,
		NumQuestions:    req.NumQuestions,
		Filters:         req.Filters,
		GroupToSubtheme: req.GroupToSubtheme,
		SubthemeToTheme: req.SubthemeToTheme,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"jobId":      jobID,
		"workflowId": workflowID,
	})
}

// Get handles GET /v1/quizzes/jobs/{jobId}
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	status, err := h.jobSvc.GetJobStatus(r.Context(), middleware.GetTenantID(r.Context()), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Latest handles GET /v1/quizzes/jobs/latest
func (h *JobHandler) Latest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	status, err := h.jobSvc.GetLatestJob(r.Context(), middleware.GetTenantID(r.Context()), userID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "no jobs for user")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, status)
}
