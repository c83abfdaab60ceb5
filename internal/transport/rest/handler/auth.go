package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"prepdeck/internal/model"
	"prepdeck/internal/service"
)

// AuthHandler handles login
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps domain errors onto HTTP statuses. A terminal
// generation failure never claims a score of zero; the client sees the
// failure and can retry the operation.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *model.ValidationError
	var stateErr *model.SessionStateError
	var contractErr *model.ContractViolationError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &stateErr):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrGenerationTimeout):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &contractErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
