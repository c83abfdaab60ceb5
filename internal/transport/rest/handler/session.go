package handler

import (
	"encoding/json"
	"net/http"

	"prepdeck/internal/model"
	"prepdeck/internal/repository"
	"prepdeck/internal/service"
	"prepdeck/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

const (
	defaultQuizQuestions      = 10
	defaultQuizTimeLimit      = 900
	defaultInterviewQuestions = 5
	defaultInterviewTimeLimit = 1800
)

// SessionHandler handles the assessment session lifecycle
type SessionHandler struct {
	sessionSvc   *service.SessionService
	reportSvc    *service.ReportService
	generatorSvc *service.GeneratorService
	questionRepo repository.QuestionRepo
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService, reportSvc *service.ReportService, generatorSvc *service.GeneratorService, questionRepo repository.QuestionRepo) *SessionHandler {
	return &SessionHandler{
		sessionSvc:   sessionSvc,
		reportSvc:    reportSvc,
		generatorSvc: generatorSvc,
		questionRepo: questionRepo,
	}
}

// StartSessionRequest is the request body for starting a session
type StartSessionRequest struct {
	Kind             model.SessionKind  `json:"kind"`
	QuestionCount    int                `json:"questionCount,omitempty"`
	TimeLimitSeconds int                `json:"timeLimitSeconds,omitempty"`
	Role             string             `json:"role,omitempty"`       // interview only
	Level            string             `json:"level,omitempty"`      // interview only
	Type             model.QuestionKind `json:"type,omitempty"`       // interview only
	Difficulty       string             `json:"difficulty,omitempty"` // interview only
}

// Start handles POST /v1/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Kind {
	case model.SessionQuiz:
		count := req.QuestionCount
		if count <= 0 {
			count = defaultQuizQuestions
		}
		limit := req.TimeLimitSeconds
		if limit <= 0 {
			limit = defaultQuizTimeLimit
		}
		kinds := []model.QuestionKind{model.KindMultipleChoice, model.KindTrueFalse, model.KindShortAnswer}
		questions, err := h.questionRepo.Sample(r.Context(), kinds, count)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if len(questions) == 0 {
			writeError(w, http.StatusConflict, "question bank is empty")
			return
		}
		session, err := h.sessionSvc.StartQuiz(r.Context(), userID, questions, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, session)

	case model.SessionInterview:
		count := req.QuestionCount
		if count <= 0 {
			count = defaultInterviewQuestions
		}
		limit := req.TimeLimitSeconds
		if limit <= 0 {
			limit = defaultInterviewTimeLimit
		}
		questions, err := h.generatorSvc.GenerateQuestions(r.Context(), req.Role, req.Level, req.Type, req.Difficulty, count)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		session, err := h.sessionSvc.StartInterview(r.Context(), userID, req.Role, req.Level, questions, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, session)

	default:
		writeError(w, http.StatusBadRequest, "kind must be quiz or interview")
	}
}

// ownedSession resolves the session and enforces ownership: every session
// endpoint acts only on sessions of the authenticated user. On failure the
// response has already been written.
func (h *SessionHandler) ownedSession(w http.ResponseWriter, r *http.Request, id string) (*model.Session, bool) {
	session, err := h.sessionSvc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	if session.UserID != middleware.GetUserID(r.Context()) {
		writeError(w, http.StatusForbidden, "not your session")
		return nil, false
	}
	return session, true
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r, mux.Vars(r)["id"])
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":       session,
		"answeredCount": session.AnsweredCount(),
	})
}

// AnswerRequest is the request body for capturing an answer
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// Answer handles PUT /v1/sessions/{id}/answers/{questionId}
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, ok := h.ownedSession(w, r, vars["id"]); !ok {
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.sessionSvc.SetAnswer(vars["id"], vars["questionId"], req.Answer); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// IndexRequest carries a question index for flagging and navigation
type IndexRequest struct {
	Index int `json:"index"`
}

// Flag handles POST /v1/sessions/{id}/flag
func (h *SessionHandler) Flag(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.ownedSession(w, r, id); !ok {
		return
	}

	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.sessionSvc.ToggleFlag(id, req.Index); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Goto handles POST /v1/sessions/{id}/goto
func (h *SessionHandler) Goto(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.ownedSession(w, r, id); !ok {
		return
	}

	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.sessionSvc.Goto(id, req.Index); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Next handles POST /v1/sessions/{id}/next
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.ownedSession(w, r, id); !ok {
		return
	}
	if err := h.sessionSvc.Next(id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Previous handles POST /v1/sessions/{id}/previous
func (h *SessionHandler) Previous(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.ownedSession(w, r, id); !ok {
		return
	}
	if err := h.sessionSvc.Previous(id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Submit handles POST /v1/sessions/{id}/submit. Quiz reports come back
// synchronously; interview scoring is asynchronous and the client polls
// the report endpoint or listens on the event feed.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.ownedSession(w, r, id); !ok {
		return
	}

	report, err := h.sessionSvc.Submit(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if report == nil {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "scoring"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Abandon handles DELETE /v1/sessions/{id}
func (h *SessionHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.ownedSession(w, r, id); !ok {
		return
	}
	if err := h.sessionSvc.Abandon(id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
}

// Report handles GET /v1/sessions/{id}/report
func (h *SessionHandler) Report(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	report, err := h.reportSvc.GetReport(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "report not ready")
		return
	}
	if report.UserID != middleware.GetUserID(r.Context()) {
		writeError(w, http.StatusForbidden, "not your session")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListReports handles GET /v1/reports
func (h *SessionHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	reports, err := h.reportSvc.ListUserReports(r.Context(), userID, 20)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}

// SubmitQuizRequest is the one-shot quiz submission body
type SubmitQuizRequest struct {
	SessionID        string            `json:"sessionId"`
	Answers          map[string]string `json:"answers"`
	Flagged          []string          `json:"flagged,omitempty"`
	TimeSpentSeconds int               `json:"timeSpentSeconds"`
}

// SubmitQuiz handles POST /v1/quiz/submit: bulk-applies answers and flags
// to the live session, submits it and returns the report in one call.
func (h *SessionHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req SubmitQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if _, ok := h.ownedSession(w, r, req.SessionID); !ok {
		return
	}

	report, err := h.sessionSvc.SubmitQuizBulk(r.Context(), req.SessionID, req.Answers, req.Flagged, req.TimeSpentSeconds)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
