package handler

import (
	"net/http"

	"prepdeck/internal/model"
	"prepdeck/internal/repository"

	"github.com/gorilla/mux"
)

// QuestionHandler serves read access to the quiz question bank
type QuestionHandler struct {
	questionRepo repository.QuestionRepo
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(questionRepo repository.QuestionRepo) *QuestionHandler {
	return &QuestionHandler{questionRepo: questionRepo}
}

// List handles GET /v1/questions, optionally filtered by ?kind=
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		questions []model.Question
		err       error
	)
	if kindParam := r.URL.Query().Get("kind"); kindParam != "" {
		kind := model.QuestionKind(kindParam)
		if !kind.IsValid() {
			writeError(w, http.StatusBadRequest, "unknown question kind "+kindParam)
			return
		}
		questions, err = h.questionRepo.GetByKind(r.Context(), kind)
	} else {
		questions, err = h.questionRepo.GetAll(r.Context())
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
}

// Get handles GET /v1/questions/{id}
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	question, err := h.questionRepo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if question == nil {
		writeError(w, http.StatusNotFound, "question not found")
		return
	}
	writeJSON(w, http.StatusOK, question)
}
