package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"prepdeck/internal/model"
	"prepdeck/internal/service"
)

// InterviewAction discriminates the interview pipeline operations
type InterviewAction string

const (
	ActionGenerateQuestions InterviewAction = "generate_questions"
	ActionAnalyzeAnswer     InterviewAction = "analyze_answer"
	ActionGenerateFeedback  InterviewAction = "generate_feedback"
)

// GenerateQuestionsPayload asks for a fresh interview question set
type GenerateQuestionsPayload struct {
	Role       string             `json:"role"`
	Level      string             `json:"level"`
	Type       model.QuestionKind `json:"type"`
	Difficulty string             `json:"difficulty"`
	Count      int                `json:"count"`
}

// AnalyzeAnswerPayload asks for feedback on one answer
type AnalyzeAnswerPayload struct {
	Answer   string         `json:"answer"`
	Question model.Question `json:"question"`
	Role     string         `json:"role"`
	Level    string         `json:"level"`
}

// GenerateFeedbackPayload asks for the session-level narrative
type GenerateFeedbackPayload struct {
	Role      string                 `json:"role"`
	Level     string                 `json:"level"`
	Questions []model.Question       `json:"questions"`
	Answers   map[string]string      `json:"answers"`
	Results   []model.FeedbackResult `json:"results,omitempty"`
}

// InterviewRequest is the tagged-variant request for the single interview
// endpoint: the action field selects exactly one populated payload, so the
// dispatch below stays exhaustive over the declared variants.
type InterviewRequest struct {
	Action            InterviewAction           `json:"action"`
	GenerateQuestions *GenerateQuestionsPayload `json:"generateQuestions,omitempty"`
	AnalyzeAnswer     *AnalyzeAnswerPayload     `json:"analyzeAnswer,omitempty"`
	GenerateFeedback  *GenerateFeedbackPayload  `json:"generateFeedback,omitempty"`
}

// payloadFor checks the action/payload pairing
func (r *InterviewRequest) payloadFor(action InterviewAction) error {
	populated := 0
	if r.GenerateQuestions != nil {
		populated++
	}
	if r.AnalyzeAnswer != nil {
		populated++
	}
	if r.GenerateFeedback != nil {
		populated++
	}
	if populated != 1 {
		return &model.ValidationError{Field: "action", Reason: "exactly one payload must be set"}
	}
	var ok bool
	switch action {
	case ActionGenerateQuestions:
		ok = r.GenerateQuestions != nil
	case ActionAnalyzeAnswer:
		ok = r.AnalyzeAnswer != nil
	case ActionGenerateFeedback:
		ok = r.GenerateFeedback != nil
	}
	if !ok {
		return &model.ValidationError{Field: "action", Reason: fmt.Sprintf("payload does not match action %q", action)}
	}
	return nil
}

// InterviewHandler dispatches the three interview pipeline operations
type InterviewHandler struct {
	generatorSvc *service.GeneratorService
}

// NewInterviewHandler creates a new interview handler
func NewInterviewHandler(generatorSvc *service.GeneratorService) *InterviewHandler {
	return &InterviewHandler{generatorSvc: generatorSvc}
}

// Dispatch handles POST /v1/interview. An unrecognized action is a 400;
// any internal failure is a 5xx with no partial result.
func (h *InterviewHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req InterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Action {
	case ActionGenerateQuestions:
		if err := req.payloadFor(req.Action); err != nil {
			writeServiceError(w, err)
			return
		}
		h.generateQuestions(w, r, req.GenerateQuestions)
	case ActionAnalyzeAnswer:
		if err := req.payloadFor(req.Action); err != nil {
			writeServiceError(w, err)
			return
		}
		h.analyzeAnswer(w, r, req.AnalyzeAnswer)
	case ActionGenerateFeedback:
		if err := req.payloadFor(req.Action); err != nil {
			writeServiceError(w, err)
			return
		}
		h.generateFeedback(w, r, req.GenerateFeedback)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unrecognized action %q", req.Action))
	}
}

func (h *InterviewHandler) generateQuestions(w http.ResponseWriter, r *http.Request, p *GenerateQuestionsPayload) {
	questions, err := h.generatorSvc.GenerateQuestions(r.Context(), p.Role, p.Level, p.Type, p.Difficulty, p.Count)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
}

func (h *InterviewHandler) analyzeAnswer(w http.ResponseWriter, r *http.Request, p *AnalyzeAnswerPayload) {
	feedback, err := h.generatorSvc.AnalyzeAnswer(r.Context(), p.Question, p.Answer, p.Role, p.Level)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

func (h *InterviewHandler) generateFeedback(w http.ResponseWriter, r *http.Request, p *GenerateFeedbackPayload) {
	session := &model.Session{
		Kind:      model.SessionInterview,
		Role:      p.Role,
		Level:     p.Level,
		Questions: p.Questions,
		Answers:   make(map[string]model.AnswerRecord, len(p.Answers)),
	}
	for qid, answer := range p.Answers {
		session.Answers[qid] = model.AnswerRecord{QuestionID: qid, RawAnswer: answer}
	}

	outcomes := make([]model.QuestionOutcome, 0, len(p.Results))
	for i := range p.Results {
		fb := p.Results[i]
		outcomes = append(outcomes, model.QuestionOutcome{
			QuestionID: fb.QuestionID,
			Graded:     true,
			Feedback:   &fb,
		})
	}

	feedback, err := h.generatorSvc.SynthesizeSessionFeedback(r.Context(), session, outcomes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"feedback": feedback})
}
