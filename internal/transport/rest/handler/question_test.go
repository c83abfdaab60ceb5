package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"prepdeck/internal/model"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListQuestions(t *testing.T) {
	h := NewQuestionHandler(&stubQuestionRepo{questions: bankQuestions()})

	req := httptest.NewRequest("GET", "/v1/questions", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Questions []model.Question `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Questions, 3)
}

func TestListQuestionsByKind(t *testing.T) {
	h := NewQuestionHandler(&stubQuestionRepo{questions: bankQuestions()})

	req := httptest.NewRequest("GET", "/v1/questions?kind=true_false", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Questions []model.Question `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Questions, 1)
	assert.Equal(t, model.KindTrueFalse, resp.Questions[0].Kind)
}

func TestListQuestionsUnknownKind(t *testing.T) {
	h := NewQuestionHandler(&stubQuestionRepo{})

	req := httptest.NewRequest("GET", "/v1/questions?kind=riddle", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQuestion(t *testing.T) {
	h := NewQuestionHandler(&stubQuestionRepo{questions: bankQuestions()})

	req := httptest.NewRequest("GET", "/v1/questions/q1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "q1"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var q model.Question
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.Equal(t, "q1", q.ID)

	req = httptest.NewRequest("GET", "/v1/questions/nope", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "nope"})
	rec = httptest.NewRecorder()
	h.Get(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
