package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"prepdeck/internal/config"
	"prepdeck/internal/model"

	"github.com/google/uuid"
)

// GeneratorService converts natural-language tasks (generate questions,
// analyze one answer, synthesize session feedback) into values satisfying a
// fixed schema, by delegating text synthesis to Gemini and validating its
// output before anyone trusts it. Only the session narrative, which is
// presentation prose, bypasses validation.
type GeneratorService struct {
	config *config.AIConfig
	client *http.Client

	mu  sync.Mutex
	rng *rand.Rand // drives the offline evaluator; injected for determinism
}

// NewGeneratorService creates a new generator service
func NewGeneratorService(cfg *config.AIConfig) *GeneratorService {
	return &GeneratorService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
		rng: rand.New(rand.NewSource(cfg.MockSeed)),
	}
}

// GenerateQuestions builds a set of interview questions for the given role,
// level, kind and difficulty. The result is schema-validated; out-of-contract
// output fails after one retry, it is never coerced.
func (s *GeneratorService) GenerateQuestions(ctx context.Context, role, level string, kind model.QuestionKind, difficulty string, count int) ([]model.Question, error) {
	if role == "" {
		return nil, &model.ValidationError{Field: "role", Reason: "must not be empty"}
	}
	if count < 1 || count > 20 {
		return nil, &model.ValidationError{Field: "count", Reason: "must be between 1 and 20"}
	}
	if !kind.IsValid() || !(model.Question{Kind: kind}).IsInterviewKind() {
		return nil, &model.ValidationError{Field: "type", Reason: fmt.Sprintf("%q is not an interview question kind", kind)}
	}
	switch difficulty {
	case "easy", "medium", "hard":
	default:
		return nil, &model.ValidationError{Field: "difficulty", Reason: "must be easy, medium or hard"}
	}

	if !s.config.IsEnabled() {
		return s.offlineQuestions(role, kind, count), nil
	}

	prompt := s.buildQuestionsPrompt(role, level, kind, difficulty, count)
	raw, err := s.generateValidated(ctx, s.config.Models.QuestionGen, prompt, questionSetSchema, "generate_questions")
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Questions []model.Question `json:"questions"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &model.ContractViolationError{Op: "generate_questions", Err: err}
	}
	if len(parsed.Questions) != count {
		return nil, &model.ContractViolationError{
			Op:  "generate_questions",
			Err: fmt.Errorf("requested %d questions, got %d", count, len(parsed.Questions)),
		}
	}
	for i := range parsed.Questions {
		if parsed.Questions[i].ID == "" {
			parsed.Questions[i].ID = uuid.New().String()
		}
	}
	return parsed.Questions, nil
}

// AnalyzeAnswer produces a bounded FeedbackResult for one interview answer.
// technicalAccuracy is required for technical questions and optional for
// every other kind; its absence there is valid, not an error.
func (s *GeneratorService) AnalyzeAnswer(ctx context.Context, question model.Question, answer, role, level string) (*model.FeedbackResult, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, &model.ValidationError{Field: "answer", Reason: "must not be empty"}
	}
	if question.Text == "" {
		return nil, &model.ValidationError{Field: "question", Reason: "must not be empty"}
	}

	if !s.config.IsEnabled() {
		return s.offlineFeedback(question, answer), nil
	}

	schema := feedbackSchema
	if question.Kind == model.KindTechnical {
		schema = technicalFeedbackSchema
	}

	prompt := s.buildAnalysisPrompt(question, answer, role, level)
	raw, err := s.generateValidated(ctx, s.config.Models.AnswerEval, prompt, schema, "analyze_answer")
	if err != nil {
		return nil, err
	}

	var result model.FeedbackResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &model.ContractViolationError{Op: "analyze_answer", Err: err}
	}
	result.QuestionID = question.ID
	return &result, nil
}

// SynthesizeSessionFeedback produces the free-form session narrative. This is
// the one gateway operation returning unvalidated text: the output is
// presentation prose, not a value consumed by further computation.
func (s *GeneratorService) SynthesizeSessionFeedback(ctx context.Context, session *model.Session, outcomes []model.QuestionOutcome) (string, error) {
	if !s.config.IsEnabled() {
		return s.offlineNarrative(session, outcomes), nil
	}

	prompt := s.buildNarrativePrompt(session, outcomes)
	text, err := s.callGemini(ctx, s.config.Models.Feedback, prompt, false)
	if err != nil {
		return "", s.mapCallError("generate_feedback", err)
	}
	return strings.TrimSpace(text), nil
}

// generateValidated runs one JSON-mode call and validates the reply against
// schema. A first validation failure retries once with a stricter restatement
// of the instructions; a second failure is terminal for the operation.
func (s *GeneratorService) generateValidated(ctx context.Context, modelName, prompt string, schema *compiledSchema, op string) (json.RawMessage, error) {
	raw, err := s.callGemini(ctx, modelName, prompt, true)
	if err != nil {
		return nil, s.mapCallError(op, err)
	}

	verr := schema.validate([]byte(raw))
	if verr == nil {
		return json.RawMessage(raw), nil
	}

	retryPrompt := prompt + "\n\nYour previous reply did not satisfy the required JSON schema (" +
		verr.Error() + "). Respond again with ONLY a JSON value that matches the schema exactly. " +
		"Every numeric score must be an integer between 0 and 100. Do not add or omit fields."
	raw, err = s.callGemini(ctx, modelName, retryPrompt, true)
	if err != nil {
		return nil, s.mapCallError(op, err)
	}
	if verr := schema.validate([]byte(raw)); verr != nil {
		return nil, &model.ContractViolationError{Op: op, Err: verr}
	}
	return json.RawMessage(raw), nil
}

// mapCallError classifies transport failures. Deadline hits become the
// retryable timeout error; the countdown clock is never affected.
func (s *GeneratorService) mapCallError(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %w", op, model.ErrGenerationTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// callGemini makes a request to the Gemini API
func (s *GeneratorService) callGemini(ctx context.Context, modelName, prompt string, jsonMode bool) (string, error) {
	generationConfig := map[string]interface{}{}
	if jsonMode {
		generationConfig["responseMimeType"] = "application/json"
	}
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": generationConfig,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(s.config.TimeoutMS)*time.Millisecond)
	defer cancel()

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(modelName), s.config.APIKey)
	req, err := http.NewRequestWithContext(callCtx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, string(body))
	}

	// Parse Gemini response structure
	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}
	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}
	return "", fmt.Errorf("empty response from Gemini")
}

// Prompt builders

func (s *GeneratorService) buildQuestionsPrompt(role, level string, kind model.QuestionKind, difficulty string, count int) string {
	return fmt.Sprintf(`You are preparing a mock interview. Return ONLY valid JSON matching this schema:
{
  "questions": [{
    "text": "the question",
    "kind": "%s",
    "expectedDurationSeconds": 60 to 600,
    "evaluationCriteria": ["criterion 1", "criterion 2"]
  }]
}

Role: %s
Seniority level: %s
Question kind: %s
Difficulty: %s
Number of questions: %d

Generate exactly %d %s questions appropriate for a %s %s candidate.
Every question needs at least two concrete evaluation criteria.`,
		kind, role, level, kind, difficulty, count, count, difficulty, level, role)
}

func (s *GeneratorService) buildAnalysisPrompt(question model.Question, answer, role, level string) string {
	technicalLine := ""
	if question.Kind == model.KindTechnical {
		technicalLine = `
    "technicalAccuracy": 0 to 100,`
	}

	criteria := strings.Join(question.EvaluationCriteria, "; ")

	return fmt.Sprintf(`You are evaluating a mock interview answer. Return ONLY valid JSON matching this schema:
{
  "scores": {
    "clarity": 0 to 100,
    "confidence": 0 to 100,
    "structure": 0 to 100,
    "relevance": 0 to 100,%s
    "overall": 0 to 100
  },
  "suggestions": ["up to 3 concrete suggestions"],
  "strengths": ["up to 3 strengths"],
  "improvements": ["up to 3 improvements"]
}

Question (%s): %s
Evaluation criteria: %s
Candidate role: %s, level: %s
Candidate's answer: %s

Score each dimension 0-100 against the criteria. Keep each list to at most 3 short items.`,
		technicalLine, question.Kind, question.Text, criteria, role, level, answer)
}

func (s *GeneratorService) buildNarrativePrompt(session *model.Session, outcomes []model.QuestionOutcome) string {
	var sb strings.Builder
	for _, o := range outcomes {
		q, ok := session.QuestionByID(o.QuestionID)
		if !ok {
			continue
		}
		switch {
		case o.Feedback != nil:
			fmt.Fprintf(&sb, "- %q: overall %d/100\n", q.Text, o.Feedback.Scores.Overall)
		case !o.Graded:
			fmt.Fprintf(&sb, "- %q: not evaluated (%s)\n", q.Text, o.FailureReason)
		default:
			fmt.Fprintf(&sb, "- %q: no answer submitted\n", q.Text)
		}
	}

	return fmt.Sprintf(`Write a short, encouraging performance summary for a mock interview candidate.
Plain text only, 3-5 sentences, no JSON, no markdown.

Role: %s (%s)
Questions answered: %d of %d
Per-question results:
%s`,
		session.Role, session.Level, session.AnsweredCount(), len(session.Questions), sb.String())
}

// Offline evaluator, used when no API key is configured. Deterministic under
// the injected randomness source.

var offlineQuestionTemplates = map[model.QuestionKind][]string{
	model.KindBehavioral: {
		"Tell me about a time you disagreed with a teammate on a %s project. How did you resolve it?",
		"Describe a situation where you missed a deadline as a %s. What did you change afterward?",
		"Give an example of feedback you received as a %s that was hard to hear.",
	},
	model.KindTechnical: {
		"Walk me through how you would design the core data model for a %s system.",
		"What trade-offs would you weigh when scaling a %s service tenfold?",
		"Explain a technically difficult bug you fixed as a %s and how you found it.",
	},
	model.KindSituational: {
		"Your %s team inherits a failing project a week before release. What do you do first?",
		"A stakeholder asks you, a %s, for an estimate you cannot justify. How do you respond?",
		"Two senior %s colleagues give you conflicting directions. How do you proceed?",
	},
	model.KindCaseStudy: {
		"A client's %s platform loses 20%% of its users in a month. Structure an investigation.",
		"You must cut your %s team's infrastructure cost by half without losing reliability. Outline a plan.",
	},
}

var offlineSuggestionPool = []string{
	"Use a concrete example with measurable outcomes",
	"Structure the answer as situation, action, result",
	"State your own role explicitly rather than the team's",
	"Close with what you learned or would do differently",
	"Quantify the impact where possible",
}

func (s *GeneratorService) offlineQuestions(role string, kind model.QuestionKind, count int) []model.Question {
	templates := offlineQuestionTemplates[kind]
	questions := make([]model.Question, 0, count)
	s.mu.Lock()
	offset := s.rng.Intn(len(templates))
	s.mu.Unlock()
	for i := 0; i < count; i++ {
		text := fmt.Sprintf(templates[(offset+i)%len(templates)], role)
		questions = append(questions, model.Question{
			ID:                      uuid.New().String(),
			Text:                    text,
			Kind:                    kind,
			ExpectedDurationSeconds: 180,
			EvaluationCriteria:      []string{"specificity", "clear structure", "relevance to the question"},
		})
	}
	return questions
}

func (s *GeneratorService) offlineFeedback(question model.Question, answer string) *model.FeedbackResult {
	wordCount := len(strings.Fields(answer))
	base := wordCount * 2
	if base > 85 {
		base = 85
	}
	if base < 20 {
		base = 20
	}

	s.mu.Lock()
	first := s.rng.Intn(len(offlineSuggestionPool))
	second := s.rng.Intn(len(offlineSuggestionPool))
	s.mu.Unlock()
	suggestions := []string{offlineSuggestionPool[first]}
	if second != first {
		suggestions = append(suggestions, offlineSuggestionPool[second])
	}

	scores := model.FeedbackScores{
		Clarity:    base,
		Confidence: base,
		Structure:  base - 5,
		Relevance:  base + 5,
		Overall:    base,
	}
	if scores.Structure < 0 {
		scores.Structure = 0
	}
	if scores.Relevance > 100 {
		scores.Relevance = 100
	}
	if question.Kind == model.KindTechnical {
		ta := base
		scores.TechnicalAccuracy = &ta
	}

	return &model.FeedbackResult{
		QuestionID:   question.ID,
		Scores:       scores,
		Suggestions:  suggestions,
		Strengths:    []string{"answered the question asked"},
		Improvements: []string{"add more specific detail"},
	}
}

func (s *GeneratorService) offlineNarrative(session *model.Session, outcomes []model.QuestionOutcome) string {
	return fmt.Sprintf("You completed %d of %d questions in this %s practice session. "+
		"Review the per-question feedback for concrete next steps, then run another session to track your progress.",
		session.AnsweredCount(), len(session.Questions), session.Role)
}
