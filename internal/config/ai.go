package config

import "os"

// GeminiModels defines which Gemini models to use for different tasks
type GeminiModels struct {
	// QuestionGen is for interview question set generation (quality over speed)
	QuestionGen string `json:"questionGen"`

	// AnswerEval is for per-answer analysis (needs to be fast, runs per question)
	AnswerEval string `json:"answerEval"`

	// Feedback is for session-level narrative synthesis (not blocking the UI)
	Feedback string `json:"feedback"`
}

// AIConfig holds all AI-related configuration
type AIConfig struct {
	APIKey    string       `json:"-"` // Never serialize
	BaseURL   string       `json:"baseUrl"`
	Models    GeminiModels `json:"models"`
	TimeoutMS int          `json:"timeoutMs"`
	MockSeed  int64        `json:"mockSeed"` // seeds the offline evaluator when no API key is set
}

// DefaultAIConfig returns the default AI configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/models",
		Models: GeminiModels{
			QuestionGen: getEnvOrDefault("GEMINI_MODEL_QUESTIONGEN", "gemini-2.0-flash"),
			AnswerEval:  getEnvOrDefault("GEMINI_MODEL_ANSWEREVAL", "gemini-2.5-flash-preview-05-20"),
			Feedback:    getEnvOrDefault("GEMINI_MODEL_FEEDBACK", "gemini-2.0-flash"),
		},
		TimeoutMS: 10000, // per-call timeout, independent of the assessment countdown
		MockSeed:  getEnvInt64("AI_MOCK_SEED", 1),
	}
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ModelEndpoint returns the full endpoint for a given model
func (c *AIConfig) ModelEndpoint(model string) string {
	return c.BaseURL + "/" + model + ":generateContent"
}
