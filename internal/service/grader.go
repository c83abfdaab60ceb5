package service

import (
	"prepdeck/internal/model"
)

const noAnswerExplanation = "no answer submitted"

// Grader performs deterministic grading for quiz questions.
// Grading is a pure function of the question and the answer snapshot.
type Grader struct {
	passingScore float64
}

// NewGrader creates a grader with the shared pass/fail threshold
func NewGrader(passingScore float64) *Grader {
	return &Grader{passingScore: passingScore}
}

// PassingScore returns the configured threshold
func (g *Grader) PassingScore() float64 {
	return g.passingScore
}

// GradeQuestion grades one question against the answer snapshot.
// Multiple-choice and true/false use exact, case-sensitive string equality.
// Short-answer questions carry no correctness signal: IsCorrect stays nil
// and the explanation marks the record for qualitative review only.
func (g *Grader) GradeQuestion(q model.Question, rec *model.AnswerRecord) model.QuizResult {
	result := model.QuizResult{QuestionID: q.ID}

	if rec == nil || rec.RawAnswer == "" {
		if q.IsGradable() {
			incorrect := false
			result.IsCorrect = &incorrect
		}
		result.Explanation = noAnswerExplanation
		return result
	}

	switch q.Kind {
	case model.KindMultipleChoice, model.KindTrueFalse:
		correct := rec.RawAnswer == q.CorrectAnswer
		result.IsCorrect = &correct
		if correct {
			result.Explanation = "correct"
		} else {
			result.Explanation = "expected \"" + q.CorrectAnswer + "\""
		}
	case model.KindShortAnswer:
		result.Explanation = "free-text answer recorded for qualitative review"
	default:
		result.Explanation = "question kind is not quiz-gradable"
	}
	return result
}

// QuizScore aggregates per-question results into the session score.
// Short-answer questions are excluded from the denominator; a quiz with no
// gradable questions scores 0 and does not pass.
func (g *Grader) QuizScore(questions []model.Question, results []model.QuizResult) (score float64, passed bool) {
	byID := make(map[string]model.QuizResult, len(results))
	for _, r := range results {
		byID[r.QuestionID] = r
	}

	gradable := 0
	correct := 0
	for _, q := range questions {
		if !q.IsGradable() {
			continue
		}
		gradable++
		if r, ok := byID[q.ID]; ok && r.IsCorrect != nil && *r.IsCorrect {
			correct++
		}
	}

	if gradable == 0 {
		return 0, false
	}
	score = 100 * float64(correct) / float64(gradable)
	return score, score >= g.passingScore
}
