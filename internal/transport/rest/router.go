package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"medbank/internal/service"
	"medbank/internal/transport/rest/handler"
	"medbank/internal/transport/rest/middleware"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	QuestionService *service.QuestionService
	QuizService     *service.QuizService
	StatService     *service.StatService
	JobService      *service.JobService
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	questionHandler := handler.NewQuestionHandler(c.QuestionService)
	quizHandler := handler.NewQuizHandler(c.QuizService)
	statHandler := handler.NewStatHandler(c.StatService)
	jobHandler := handler.NewJobHandler(c.JobService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Authenticated routes
	api := v1.NewRoute().Subrouter()
	api.Use(authMW.RequireUser)

	// Quiz creation jobs. "latest" before "{jobId}" so it is not
	// swallowed by the path variable.
	api.HandleFunc("/quizzes/jobs", jobHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/quizzes/jobs/latest", jobHandler.Latest).Methods("GET", "OPTIONS")
	api.HandleFunc("/quizzes/jobs/{jobId}", jobHandler.Get).Methods("GET", "OPTIONS")

	// Materialized quizzes and session progress
	api.HandleFunc("/quizzes/{quizId}", quizHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}", quizHandler.SaveProgress).Methods("PUT", "OPTIONS")

	// Taxonomy
	api.HandleFunc("/taxonomy/themes", questionHandler.ListThemes).Methods("GET", "OPTIONS")

	// Questions
	api.HandleFunc("/questions", questionHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/questions/{questionId}", questionHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/questions/{questionId}", questionHandler.Update).Methods("PUT", "OPTIONS")
	api.HandleFunc("/questions/{questionId}", questionHandler.Delete).Methods("DELETE", "OPTIONS")

	// Answers, bookmarks, counters
	api.HandleFunc("/questions/{questionId}/answer", statHandler.RecordAnswer).Methods("POST", "OPTIONS")
	api.HandleFunc("/questions/{questionId}/bookmark", statHandler.ToggleBookmark).Methods("POST", "OPTIONS")
	api.HandleFunc("/stats/counts", statHandler.GetCounts).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
