package model

import "time"

// SessionKind distinguishes the two assessment paths
type SessionKind string

const (
	SessionQuiz      SessionKind = "quiz"
	SessionInterview SessionKind = "interview"
)

// SessionStatus tracks the session lifecycle
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusTimedOut   SessionStatus = "timed_out"
	StatusSubmitted  SessionStatus = "submitted"
	StatusScored     SessionStatus = "scored"
)

// CanTransition reports whether moving from s to next is a legal forward
// transition. Status never moves backward.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	switch s {
	case StatusInProgress:
		return next == StatusTimedOut || next == StatusSubmitted
	case StatusTimedOut, StatusSubmitted:
		return next == StatusScored
	}
	return false
}

// IsTerminal reports whether the session has left in_progress
func (s SessionStatus) IsTerminal() bool {
	return s != StatusInProgress
}

// AnswerRecord is the latest captured answer for one question.
// Re-answering replaces the prior record; only the latest value matters.
type AnswerRecord struct {
	QuestionID  string    `json:"questionId"`
	RawAnswer   string    `json:"rawAnswer"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Session is one assessment attempt. It owns its questions by value and is
// mutated only through the session service, which serializes all writers.
type Session struct {
	ID               string                  `json:"id"`
	UserID           string                  `json:"userId"`
	Kind             SessionKind             `json:"kind"`
	Role             string                  `json:"role,omitempty"`  // interview target role
	Level            string                  `json:"level,omitempty"` // interview seniority level
	Questions        []Question              `json:"questions"`
	StartedAt        time.Time               `json:"startedAt"`
	TimeLimitSeconds int                     `json:"timeLimitSeconds"`
	RemainingSeconds int                     `json:"remainingSeconds"`
	CurrentIndex     int                     `json:"currentIndex"`
	Answers          map[string]AnswerRecord `json:"answers"`
	Flagged          map[string]bool         `json:"flagged"`
	Status           SessionStatus           `json:"status"`
}

// QuestionByID returns the session's copy of a question
func (s *Session) QuestionByID(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// AnsweredCount is the number of questions with a non-empty answer.
// Used for progress display only; an incomplete session can be submitted.
func (s *Session) AnsweredCount() int {
	n := 0
	for _, rec := range s.Answers {
		if rec.RawAnswer != "" {
			n++
		}
	}
	return n
}
