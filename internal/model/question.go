package model

// QuestionKind defines the type of assessment question
type QuestionKind string

const (
	// Quiz kinds, graded deterministically
	KindMultipleChoice QuestionKind = "multiple_choice"
	KindTrueFalse      QuestionKind = "true_false"
	KindShortAnswer    QuestionKind = "short_answer" // Free text, no automatic correctness

	// Interview kinds, AI-evaluated
	KindBehavioral  QuestionKind = "behavioral"
	KindTechnical   QuestionKind = "technical"
	KindSituational QuestionKind = "situational"
	KindCaseStudy   QuestionKind = "case_study"
)

// ValidKinds lists every accepted question kind
var ValidKinds = []QuestionKind{
	KindMultipleChoice, KindTrueFalse, KindShortAnswer,
	KindBehavioral, KindTechnical, KindSituational, KindCaseStudy,
}

// IsValid reports whether k is a known question kind
func (k QuestionKind) IsValid() bool {
	for _, v := range ValidKinds {
		if k == v {
			return true
		}
	}
	return false
}

// Question is a single assessment question. Sessions hold questions by value;
// a running session never shares question instances with any other session.
type Question struct {
	ID                      string       `json:"id" bson:"_id,omitempty"`
	Text                    string       `json:"text" bson:"text"`
	Kind                    QuestionKind `json:"kind" bson:"kind"`
	Options                 []string     `json:"options,omitempty" bson:"options,omitempty"`             // multiple_choice only
	CorrectAnswer           string       `json:"correctAnswer,omitempty" bson:"correctAnswer,omitempty"` // multiple_choice / true_false
	ExpectedDurationSeconds int          `json:"expectedDurationSeconds,omitempty" bson:"expectedDurationSeconds,omitempty"`
	EvaluationCriteria      []string     `json:"evaluationCriteria" bson:"evaluationCriteria"`
}

// Clone returns a deep copy so a session can own its questions by value
func (q Question) Clone() Question {
	c := q
	if q.Options != nil {
		c.Options = append([]string(nil), q.Options...)
	}
	if q.EvaluationCriteria != nil {
		c.EvaluationCriteria = append([]string(nil), q.EvaluationCriteria...)
	}
	return c
}

// IsGradable reports whether the question has an exact expected answer.
// Short-answer questions carry no correctness signal and are excluded
// from the gradable denominator.
func (q Question) IsGradable() bool {
	return q.Kind == KindMultipleChoice || q.Kind == KindTrueFalse
}

// IsInterviewKind reports whether the question is evaluated by the AI gateway
func (q Question) IsInterviewKind() bool {
	switch q.Kind {
	case KindBehavioral, KindTechnical, KindSituational, KindCaseStudy:
		return true
	}
	return false
}
