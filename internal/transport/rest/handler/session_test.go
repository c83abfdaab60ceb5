package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"prepdeck/internal/config"
	"prepdeck/internal/model"
	"prepdeck/internal/service"
	"prepdeck/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubQuestionRepo serves a fixed in-memory question bank
type stubQuestionRepo struct {
	questions []model.Question
}

func (r *stubQuestionRepo) Create(ctx context.Context, q *model.Question) error { return nil }

func (r *stubQuestionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	for i := range r.questions {
		if r.questions[i].ID == id {
			return &r.questions[i], nil
		}
	}
	return nil, nil
}

func (r *stubQuestionRepo) GetByKind(ctx context.Context, kind model.QuestionKind) ([]model.Question, error) {
	var out []model.Question
	for _, q := range r.questions {
		if q.Kind == kind {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *stubQuestionRepo) Sample(ctx context.Context, kinds []model.QuestionKind, count int) ([]model.Question, error) {
	var out []model.Question
	for _, q := range r.questions {
		for _, k := range kinds {
			if q.Kind == k {
				out = append(out, q)
				break
			}
		}
		if len(out) == count {
			break
		}
	}
	return out, nil
}

func (r *stubQuestionRepo) GetAll(ctx context.Context) ([]model.Question, error) {
	return r.questions, nil
}

// stubReportRepo keeps persisted reports in memory
type stubReportRepo struct {
	mu      sync.Mutex
	reports map[string]*model.SessionReport
}

func newStubReportRepo() *stubReportRepo {
	return &stubReportRepo{reports: make(map[string]*model.SessionReport)}
}

func (r *stubReportRepo) Save(ctx context.Context, report *model.SessionReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[report.SessionID] = report
	return nil
}

func (r *stubReportRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.SessionReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports[sessionID], nil
}

func (r *stubReportRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]model.SessionReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.SessionReport
	for _, rep := range r.reports {
		if rep.UserID == userID {
			out = append(out, *rep)
		}
	}
	return out, nil
}

func newTestSessionHandler(repo *stubQuestionRepo) *SessionHandler {
	grader := service.NewGrader(70)
	generator := service.NewGeneratorService(&config.AIConfig{MockSeed: 1})
	reports := service.NewReportService(grader, newStubReportRepo(), nil)
	sessions := service.NewSessionService(grader, generator, reports, nil)
	return NewSessionHandler(sessions, reports, generator, repo)
}

func asUser(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	return r.WithContext(ctx)
}

func bankQuestions() []model.Question {
	return []model.Question{
		{ID: "q1", Text: "1+1?", Kind: model.KindMultipleChoice, Options: []string{"1", "2"}, CorrectAnswer: "2"},
		{ID: "q2", Text: "Sky is blue.", Kind: model.KindTrueFalse, CorrectAnswer: "true"},
		{ID: "q3", Text: "Explain caching.", Kind: model.KindShortAnswer},
	}
}

func TestStartRejectsUnknownKind(t *testing.T) {
	h := newTestSessionHandler(&stubQuestionRepo{})

	req := asUser(httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(`{"kind":"exam"}`)), "u1")
	rec := httptest.NewRecorder()
	h.Start(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartQuizEmptyBank(t *testing.T) {
	h := newTestSessionHandler(&stubQuestionRepo{})

	req := asUser(httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(`{"kind":"quiz"}`)), "u1")
	rec := httptest.NewRecorder()
	h.Start(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestQuizRoundTrip(t *testing.T) {
	h := newTestSessionHandler(&stubQuestionRepo{questions: bankQuestions()})

	// Start
	req := asUser(httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(`{"kind":"quiz","timeLimitSeconds":600}`)), "u1")
	rec := httptest.NewRecorder()
	h.Start(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var session model.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.Len(t, session.Questions, 3)
	assert.Equal(t, model.StatusInProgress, session.Status)
	assert.Equal(t, 600, session.RemainingSeconds)

	// Answer one question
	req = asUser(httptest.NewRequest("PUT", "/v1/sessions/"+session.ID+"/answers/q1", strings.NewReader(`{"answer":"2"}`)), "u1")
	req = mux.SetURLVars(req, map[string]string{"id": session.ID, "questionId": "q1"})
	rec = httptest.NewRecorder()
	h.Answer(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Progress shows one answered question
	req = asUser(httptest.NewRequest("GET", "/v1/sessions/"+session.ID, nil), "u1")
	req = mux.SetURLVars(req, map[string]string{"id": session.ID})
	rec = httptest.NewRecorder()
	h.Get(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var getResp struct {
		Session       model.Session `json:"session"`
		AnsweredCount int           `json:"answeredCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &getResp))
	assert.Equal(t, 1, getResp.AnsweredCount)

	// Submit
	req = asUser(httptest.NewRequest("POST", "/v1/sessions/"+session.ID+"/submit", nil), "u1")
	req = mux.SetURLVars(req, map[string]string{"id": session.ID})
	rec = httptest.NewRecorder()
	h.Submit(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var report model.SessionReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, session.ID, report.SessionID)
	// q1 correct, q2 unanswered; the short answer never counts
	assert.InDelta(t, 50.0, report.OverallScore, 0.001)

	// Second submit conflicts
	req = asUser(httptest.NewRequest("POST", "/v1/sessions/"+session.ID+"/submit", nil), "u1")
	req = mux.SetURLVars(req, map[string]string{"id": session.ID})
	rec = httptest.NewRecorder()
	h.Submit(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetForeignSessionForbidden(t *testing.T) {
	h := newTestSessionHandler(&stubQuestionRepo{questions: bankQuestions()})

	req := asUser(httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(`{"kind":"quiz"}`)), "u1")
	rec := httptest.NewRecorder()
	h.Start(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var session model.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	req = asUser(httptest.NewRequest("GET", "/v1/sessions/"+session.ID, nil), "someone-else")
	req = mux.SetURLVars(req, map[string]string{"id": session.ID})
	rec = httptest.NewRecorder()
	h.Get(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetUnknownSession(t *testing.T) {
	h := newTestSessionHandler(&stubQuestionRepo{})

	req := asUser(httptest.NewRequest("GET", "/v1/sessions/nope", nil), "u1")
	req = mux.SetURLVars(req, map[string]string{"id": "nope"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitQuizBulkEndpoint(t *testing.T) {
	h := newTestSessionHandler(&stubQuestionRepo{questions: bankQuestions()})

	req := asUser(httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(`{"kind":"quiz","timeLimitSeconds":600}`)), "u1")
	rec := httptest.NewRecorder()
	h.Start(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var session model.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	body := fmt.Sprintf(`{
		"sessionId": %q,
		"answers": {"q1": "2", "q2": "true"},
		"flagged": ["q2"],
		"timeSpentSeconds": 123
	}`, session.ID)
	req = asUser(httptest.NewRequest("POST", "/v1/quiz/submit", strings.NewReader(body)), "u1")
	rec = httptest.NewRecorder()
	h.SubmitQuiz(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var report model.SessionReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.InDelta(t, 100.0, report.OverallScore, 0.001)
	assert.True(t, report.Passed)
	assert.Equal(t, 123, report.TimeSpentSeconds)
}

func TestSubmitQuizRequiresSessionID(t *testing.T) {
	h := newTestSessionHandler(&stubQuestionRepo{})

	req := asUser(httptest.NewRequest("POST", "/v1/quiz/submit", strings.NewReader(`{"answers":{}}`)), "u1")
	rec := httptest.NewRecorder()
	h.SubmitQuiz(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForeignUserCannotMutateSession(t *testing.T) {
	h := newTestSessionHandler(&stubQuestionRepo{questions: bankQuestions()})

	req := asUser(httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(`{"kind":"quiz","timeLimitSeconds":600}`)), "alice")
	rec := httptest.NewRecorder()
	h.Start(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var session model.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	vars := map[string]string{"id": session.ID}

	attempts := []struct {
		name    string
		handler func(http.ResponseWriter, *http.Request)
		method  string
		body    string
		vars    map[string]string
	}{
		{"answer", h.Answer, "PUT", `{"answer":"2"}`, map[string]string{"id": session.ID, "questionId": "q1"}},
		{"flag", h.Flag, "POST", `{"index":0}`, vars},
		{"goto", h.Goto, "POST", `{"index":1}`, vars},
		{"next", h.Next, "POST", "", vars},
		{"previous", h.Previous, "POST", "", vars},
		{"submit", h.Submit, "POST", "", vars},
		{"abandon", h.Abandon, "DELETE", "", vars},
	}

	for _, tt := range attempts {
		t.Run(tt.name, func(t *testing.T) {
			req := asUser(httptest.NewRequest(tt.method, "/v1/sessions/"+session.ID, strings.NewReader(tt.body)), "mallory")
			req = mux.SetURLVars(req, tt.vars)
			rec := httptest.NewRecorder()
			tt.handler(rec, req)
			assert.Equal(t, http.StatusForbidden, rec.Code)
		})
	}

	// One-shot submit is rejected the same way
	bulk := fmt.Sprintf(`{"sessionId": %q, "answers": {"q1": "2"}}`, session.ID)
	req = asUser(httptest.NewRequest("POST", "/v1/quiz/submit", strings.NewReader(bulk)), "mallory")
	rec = httptest.NewRecorder()
	h.SubmitQuiz(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The owner's session came through untouched
	req = asUser(httptest.NewRequest("GET", "/v1/sessions/"+session.ID, nil), "alice")
	req = mux.SetURLVars(req, vars)
	rec = httptest.NewRecorder()
	h.Get(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var getResp struct {
		Session       model.Session `json:"session"`
		AnsweredCount int           `json:"answeredCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &getResp))
	assert.Equal(t, model.StatusInProgress, getResp.Session.Status)
	assert.Equal(t, 0, getResp.AnsweredCount)
}

func TestForeignUserCannotReadReport(t *testing.T) {
	h := newTestSessionHandler(&stubQuestionRepo{questions: bankQuestions()})

	req := asUser(httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(`{"kind":"quiz","timeLimitSeconds":600}`)), "alice")
	rec := httptest.NewRecorder()
	h.Start(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var session model.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	vars := map[string]string{"id": session.ID}

	req = asUser(httptest.NewRequest("POST", "/v1/sessions/"+session.ID+"/submit", nil), "alice")
	req = mux.SetURLVars(req, vars)
	rec = httptest.NewRecorder()
	h.Submit(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = asUser(httptest.NewRequest("GET", "/v1/sessions/"+session.ID+"/report", nil), "mallory")
	req = mux.SetURLVars(req, vars)
	rec = httptest.NewRecorder()
	h.Report(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = asUser(httptest.NewRequest("GET", "/v1/sessions/"+session.ID+"/report", nil), "alice")
	req = mux.SetURLVars(req, vars)
	rec = httptest.NewRecorder()
	h.Report(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInterviewStartAndAsyncSubmit(t *testing.T) {
	h := newTestSessionHandler(&stubQuestionRepo{})

	body := `{"kind":"interview","role":"backend engineer","level":"senior","type":"behavioral","difficulty":"medium","questionCount":2}`
	req := asUser(httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(body)), "u1")
	rec := httptest.NewRecorder()
	h.Start(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var session model.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.Len(t, session.Questions, 2)
	assert.Equal(t, model.SessionInterview, session.Kind)

	req = asUser(httptest.NewRequest("POST", "/v1/sessions/"+session.ID+"/submit", nil), "u1")
	req = mux.SetURLVars(req, map[string]string{"id": session.ID})
	rec = httptest.NewRecorder()
	h.Submit(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
