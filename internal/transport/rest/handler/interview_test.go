package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"prepdeck/internal/config"
	"prepdeck/internal/model"
	"prepdeck/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOfflineInterviewHandler() *InterviewHandler {
	return NewInterviewHandler(service.NewGeneratorService(&config.AIConfig{MockSeed: 1}))
}

func dispatch(t *testing.T, h *InterviewHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/v1/interview", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Dispatch(rec, req)
	return rec
}

func TestDispatchUnknownAction(t *testing.T) {
	h := newOfflineInterviewHandler()

	rec := dispatch(t, h, `{"action":"summon_dragon"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], `unrecognized action "summon_dragon"`)
}

func TestDispatchInvalidBody(t *testing.T) {
	h := newOfflineInterviewHandler()
	rec := dispatch(t, h, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatchPayloadMismatch(t *testing.T) {
	h := newOfflineInterviewHandler()

	// Action names generate_questions but carries the analyze payload
	rec := dispatch(t, h, `{
		"action": "generate_questions",
		"analyzeAnswer": {"answer": "x", "question": {"id": "q1", "text": "t"}}
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatchMultiplePayloads(t *testing.T) {
	h := newOfflineInterviewHandler()

	rec := dispatch(t, h, `{
		"action": "generate_questions",
		"generateQuestions": {"role": "engineer", "level": "mid", "type": "behavioral", "difficulty": "easy", "count": 2},
		"analyzeAnswer": {"answer": "x", "question": {"id": "q1", "text": "t"}}
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatchGenerateQuestions(t *testing.T) {
	h := newOfflineInterviewHandler()

	rec := dispatch(t, h, `{
		"action": "generate_questions",
		"generateQuestions": {"role": "backend engineer", "level": "senior", "type": "behavioral", "difficulty": "medium", "count": 2}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Questions []model.Question `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Questions, 2)
	for _, q := range resp.Questions {
		assert.NotEmpty(t, q.ID)
		assert.Equal(t, model.KindBehavioral, q.Kind)
	}
}

func TestDispatchGenerateQuestionsValidation(t *testing.T) {
	h := newOfflineInterviewHandler()

	rec := dispatch(t, h, `{
		"action": "generate_questions",
		"generateQuestions": {"role": "", "level": "senior", "type": "behavioral", "difficulty": "medium", "count": 2}
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatchAnalyzeAnswer(t *testing.T) {
	h := newOfflineInterviewHandler()

	rec := dispatch(t, h, `{
		"action": "analyze_answer",
		"analyzeAnswer": {
			"answer": "I led the migration by splitting it into reversible steps and measuring each one.",
			"question": {"id": "q1", "text": "Describe a risky change you shipped.", "kind": "behavioral"},
			"role": "backend engineer",
			"level": "senior"
		}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result model.FeedbackResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "q1", result.QuestionID)
	assert.NoError(t, result.Validate())
}

func TestDispatchGenerateFeedback(t *testing.T) {
	h := newOfflineInterviewHandler()

	rec := dispatch(t, h, `{
		"action": "generate_feedback",
		"generateFeedback": {
			"role": "backend engineer",
			"level": "senior",
			"questions": [{"id": "q1", "text": "Describe a risky change.", "kind": "behavioral"}],
			"answers": {"q1": "I split it into reversible steps."}
		}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["feedback"])
}
