package model

import (
	"fmt"
	"time"
)

// FeedbackScores are the bounded rubric scores for one interview answer.
// Every score is in [0,100]. TechnicalAccuracy is present only for
// technical questions; its absence elsewhere is valid.
type FeedbackScores struct {
	Clarity           int  `json:"clarity" bson:"clarity"`
	Confidence        int  `json:"confidence" bson:"confidence"`
	Structure         int  `json:"structure" bson:"structure"`
	Relevance         int  `json:"relevance" bson:"relevance"`
	TechnicalAccuracy *int `json:"technicalAccuracy,omitempty" bson:"technicalAccuracy,omitempty"`
	Overall           int  `json:"overall" bson:"overall"`
}

// FeedbackResult is the AI-derived evaluation of one interview answer.
// Immutable once created.
type FeedbackResult struct {
	QuestionID   string         `json:"questionId" bson:"questionId"`
	Scores       FeedbackScores `json:"scores" bson:"scores"`
	Suggestions  []string       `json:"suggestions" bson:"suggestions"`
	Strengths    []string       `json:"strengths" bson:"strengths"`
	Improvements []string       `json:"improvements" bson:"improvements"`
}

// Validate checks every declared score bound. Out-of-range values are
// rejected, never clamped.
func (f *FeedbackResult) Validate() error {
	check := func(name string, v int) error {
		if v < 0 || v > 100 {
			return &ValidationError{Field: "scores." + name, Reason: fmt.Sprintf("value %d outside [0,100]", v)}
		}
		return nil
	}
	if err := check("clarity", f.Scores.Clarity); err != nil {
		return err
	}
	if err := check("confidence", f.Scores.Confidence); err != nil {
		return err
	}
	if err := check("structure", f.Scores.Structure); err != nil {
		return err
	}
	if err := check("relevance", f.Scores.Relevance); err != nil {
		return err
	}
	if f.Scores.TechnicalAccuracy != nil {
		if err := check("technicalAccuracy", *f.Scores.TechnicalAccuracy); err != nil {
			return err
		}
	}
	return check("overall", f.Scores.Overall)
}

// QuizResult is the deterministic grading outcome for one quiz question.
// IsCorrect is nil for short-answer questions, which carry no automatic
// correctness signal.
type QuizResult struct {
	QuestionID  string `json:"questionId" bson:"questionId"`
	IsCorrect   *bool  `json:"isCorrect,omitempty" bson:"isCorrect,omitempty"`
	Explanation string `json:"explanation" bson:"explanation"`
}

// QuestionOutcome merges the two result shapes into one per-question unit.
// Graded=false marks a question the system failed to evaluate; that is
// distinct from a genuinely unanswered question and is excluded from
// scoring rather than counted as zero.
type QuestionOutcome struct {
	QuestionID    string          `json:"questionId" bson:"questionId"`
	Graded        bool            `json:"graded" bson:"graded"`
	Quiz          *QuizResult     `json:"quiz,omitempty" bson:"quiz,omitempty"`
	Feedback      *FeedbackResult `json:"feedback,omitempty" bson:"feedback,omitempty"`
	FailureReason string          `json:"failureReason,omitempty" bson:"failureReason,omitempty"`
}

// SessionReport is the aggregate result of one session. Created once at
// scoring time and never mutated; a new attempt creates a new report.
type SessionReport struct {
	ID               string            `json:"id" bson:"_id,omitempty"`
	SessionID        string            `json:"sessionId" bson:"sessionId"`
	UserID           string            `json:"userId" bson:"userId"`
	Kind             SessionKind       `json:"kind" bson:"kind"`
	OverallScore     float64           `json:"overallScore" bson:"overallScore"`
	TimeSpentSeconds int               `json:"timeSpentSeconds" bson:"timeSpentSeconds"`
	Passed           bool              `json:"passed" bson:"passed"`
	Outcomes         []QuestionOutcome `json:"outcomes" bson:"outcomes"`
	Strengths        []string          `json:"strengths,omitempty" bson:"strengths,omitempty"`
	Improvements     []string          `json:"improvements,omitempty" bson:"improvements,omitempty"`
	Narrative        string            `json:"narrative,omitempty" bson:"narrative,omitempty"`
	CreatedAt        time.Time         `json:"createdAt" bson:"createdAt"`
}
