package rest

import (
	"net/http"
	"os"

	"prepdeck/internal/repository"
	"prepdeck/internal/service"
	"prepdeck/internal/transport/rest/handler"
	"prepdeck/internal/transport/rest/middleware"
	"prepdeck/internal/transport/ws"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService      *service.AuthService
	SessionService   *service.SessionService
	ReportService    *service.ReportService
	GeneratorService *service.GeneratorService
	QuestionRepo     repository.QuestionRepo
	WSHub            *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	sessionHandler := handler.NewSessionHandler(c.SessionService, c.ReportService, c.GeneratorService, c.QuestionRepo)
	questionHandler := handler.NewQuestionHandler(c.QuestionRepo)
	interviewHandler := handler.NewInterviewHandler(c.GeneratorService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.SessionService)

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
	authed := v1.NewRoute().Subrouter()
	authed.Use(authMW.RequireUser)

	authed.HandleFunc("/sessions", sessionHandler.Start).Methods("POST", "OPTIONS")
	authed.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	authed.HandleFunc("/sessions/{id}", sessionHandler.Abandon).Methods("DELETE", "OPTIONS")
	authed.HandleFunc("/sessions/{id}/answers/{questionId}", sessionHandler.Answer).Methods("PUT", "OPTIONS")
	authed.HandleFunc("/sessions/{id}/flag", sessionHandler.Flag).Methods("POST", "OPTIONS")
	authed.HandleFunc("/sessions/{id}/goto", sessionHandler.Goto).Methods("POST", "OPTIONS")
	authed.HandleFunc("/sessions/{id}/next", sessionHandler.Next).Methods("POST", "OPTIONS")
	authed.HandleFunc("/sessions/{id}/previous", sessionHandler.Previous).Methods("POST", "OPTIONS")
	authed.HandleFunc("/sessions/{id}/submit", sessionHandler.Submit).Methods("POST", "OPTIONS")
	authed.HandleFunc("/sessions/{id}/report", sessionHandler.Report).Methods("GET", "OPTIONS")
	authed.HandleFunc("/quiz/submit", sessionHandler.SubmitQuiz).Methods("POST", "OPTIONS")
	authed.HandleFunc("/questions", questionHandler.List).Methods("GET", "OPTIONS")
	authed.HandleFunc("/questions/{id}", questionHandler.Get).Methods("GET", "OPTIONS")
	authed.HandleFunc("/reports", sessionHandler.ListReports).Methods("GET", "OPTIONS")
	authed.HandleFunc("/interview", interviewHandler.Dispatch).Methods("POST", "OPTIONS")

	// WebSocket session event feed (token in query param)
	v1.HandleFunc("/ws/sessions/{id}", wsHandler.SessionWS).Methods("GET")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
