package service

import (
	"testing"
	"time"

	"prepdeck/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answerRecord(qid, value string) *model.AnswerRecord {
	return &model.AnswerRecord{QuestionID: qid, RawAnswer: value, SubmittedAt: time.Now()}
}

func TestGradeQuestion(t *testing.T) {
	g := NewGrader(70)

	tests := []struct {
		name        string
		question    model.Question
		record      *model.AnswerRecord
		wantCorrect *bool
		wantExplain string
	}{
		{
			name:        "multiple choice correct",
			question:    model.Question{ID: "q1", Kind: model.KindMultipleChoice, CorrectAnswer: "B"},
			record:      answerRecord("q1", "B"),
			wantCorrect: boolPtr(true),
			wantExplain: "correct",
		},
		{
			name:        "multiple choice wrong",
			question:    model.Question{ID: "q1", Kind: model.KindMultipleChoice, CorrectAnswer: "B"},
			record:      answerRecord("q1", "C"),
			wantCorrect: boolPtr(false),
			wantExplain: `expected "B"`,
		},
		{
			name:        "equality is case sensitive",
			question:    model.Question{ID: "q1", Kind: model.KindTrueFalse, CorrectAnswer: "true"},
			record:      answerRecord("q1", "True"),
			wantCorrect: boolPtr(false),
			wantExplain: `expected "true"`,
		},
		{
			name:        "no answer is incorrect",
			question:    model.Question{ID: "q1", Kind: model.KindTrueFalse, CorrectAnswer: "false"},
			record:      nil,
			wantCorrect: boolPtr(false),
			wantExplain: "no answer submitted",
		},
		{
			name:        "empty answer is incorrect",
			question:    model.Question{ID: "q1", Kind: model.KindMultipleChoice, CorrectAnswer: "A"},
			record:      answerRecord("q1", ""),
			wantCorrect: boolPtr(false),
			wantExplain: "no answer submitted",
		},
		{
			name:        "short answer carries no correctness",
			question:    model.Question{ID: "q1", Kind: model.KindShortAnswer},
			record:      answerRecord("q1", "optimistic locking uses versions"),
			wantCorrect: nil,
			wantExplain: "free-text answer recorded for qualitative review",
		},
		{
			name:        "unanswered short answer stays ungraded",
			question:    model.Question{ID: "q1", Kind: model.KindShortAnswer},
			record:      nil,
			wantCorrect: nil,
			wantExplain: "no answer submitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := g.GradeQuestion(tt.question, tt.record)
			assert.Equal(t, tt.question.ID, result.QuestionID)
			assert.Equal(t, tt.wantExplain, result.Explanation)
			if tt.wantCorrect == nil {
				assert.Nil(t, result.IsCorrect)
			} else {
				require.NotNil(t, result.IsCorrect)
				assert.Equal(t, *tt.wantCorrect, *result.IsCorrect)
			}
		})
	}
}

func TestQuizScore(t *testing.T) {
	g := NewGrader(70)

	questions := []model.Question{
		{ID: "q1", Kind: model.KindMultipleChoice, CorrectAnswer: "A"},
		{ID: "q2", Kind: model.KindMultipleChoice, CorrectAnswer: "B"},
		{ID: "q3", Kind: model.KindTrueFalse, CorrectAnswer: "true"},
		{ID: "q4", Kind: model.KindTrueFalse, CorrectAnswer: "false"},
		{ID: "q5", Kind: model.KindMultipleChoice, CorrectAnswer: "C"},
		{ID: "q6", Kind: model.KindShortAnswer},
	}

	answers := map[string]string{
		"q1": "A",
		"q2": "B",
		"q3": "true",
		"q4": "false",
		"q5": "A", // wrong
		"q6": "free text, never counted",
	}

	results := make([]model.QuizResult, 0, len(questions))
	for _, q := range questions {
		results = append(results, g.GradeQuestion(q, answerRecord(q.ID, answers[q.ID])))
	}

	// 4 of 5 gradable questions correct; the short answer never enters the
	// denominator
	score, passed := g.QuizScore(questions, results)
	assert.InDelta(t, 80.0, score, 0.001)
	assert.True(t, passed)
}

func TestQuizScoreBelowThreshold(t *testing.T) {
	g := NewGrader(70)

	questions := []model.Question{
		{ID: "q1", Kind: model.KindTrueFalse, CorrectAnswer: "true"},
		{ID: "q2", Kind: model.KindTrueFalse, CorrectAnswer: "true"},
		{ID: "q3", Kind: model.KindTrueFalse, CorrectAnswer: "true"},
	}
	results := []model.QuizResult{
		g.GradeQuestion(questions[0], answerRecord("q1", "true")),
		g.GradeQuestion(questions[1], answerRecord("q2", "false")),
		g.GradeQuestion(questions[2], nil),
	}

	score, passed := g.QuizScore(questions, results)
	assert.InDelta(t, 100.0/3.0, score, 0.001)
	assert.False(t, passed)
}

func TestQuizScoreNoGradableQuestions(t *testing.T) {
	g := NewGrader(70)

	questions := []model.Question{
		{ID: "q1", Kind: model.KindShortAnswer},
		{ID: "q2", Kind: model.KindShortAnswer},
	}
	results := []model.QuizResult{
		g.GradeQuestion(questions[0], answerRecord("q1", "something")),
		g.GradeQuestion(questions[1], nil),
	}

	score, passed := g.QuizScore(questions, results)
	assert.Equal(t, 0.0, score)
	assert.False(t, passed)
}

func TestGradingIsDeterministic(t *testing.T) {
	g := NewGrader(70)
	q := model.Question{ID: "q1", Kind: model.KindMultipleChoice, CorrectAnswer: "B"}
	rec := answerRecord("q1", "B")

	first := g.GradeQuestion(q, rec)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, g.GradeQuestion(q, rec))
	}
}

func boolPtr(b bool) *bool { return &b }
