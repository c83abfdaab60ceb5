package service

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiledSchema wraps a compiled JSON schema for generator output
// validation. Schemas are static and compiled once at package init.
type compiledSchema struct {
	name     string
	compiled *jsonschema.Schema
}

// validate checks raw JSON against the schema. Parse failures and schema
// violations are both contract failures from the caller's point of view.
func (s *compiledSchema) validate(raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := s.compiled.Validate(parsed); err != nil {
		return fmt.Errorf("schema %s: %w", s.name, err)
	}
	return nil
}

func mustCompileSchema(name string, definition map[string]any) *compiledSchema {
	// The jsonschema compiler expects a parsed JSON value. Round-trip the
	// definition through encoding/json to normalize Go literals.
	defBytes, err := json.Marshal(definition)
	if err != nil {
		panic(fmt.Sprintf("marshal schema %s: %v", name, err))
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		panic(fmt.Sprintf("parse schema %s: %v", name, err))
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, defParsed); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return &compiledSchema{name: name, compiled: compiled}
}

func scoreBound() map[string]any {
	return map[string]any{"type": "integer", "minimum": 0, "maximum": 100}
}

func stringList() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string", "minLength": 1},
	}
}

func feedbackDefinition(requireTechnical bool) map[string]any {
	scoreProps := map[string]any{
		"clarity":           scoreBound(),
		"confidence":        scoreBound(),
		"structure":         scoreBound(),
		"relevance":         scoreBound(),
		"technicalAccuracy": scoreBound(),
		"overall":           scoreBound(),
	}
	requiredScores := []string{"clarity", "confidence", "structure", "relevance", "overall"}
	if requireTechnical {
		requiredScores = append(requiredScores, "technicalAccuracy")
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"scores": map[string]any{
				"type":                 "object",
				"properties":           scoreProps,
				"required":             requiredScores,
				"additionalProperties": false,
			},
			"suggestions":  stringList(),
			"strengths":    stringList(),
			"improvements": stringList(),
		},
		"required": []string{"scores", "suggestions", "strengths", "improvements"},
	}
}

var (
	// questionSetSchema constrains generated interview question sets:
	// enumerated kind, non-empty text and criteria, bounded duration.
	questionSetSchema = mustCompileSchema("question_set", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text": map[string]any{"type": "string", "minLength": 1},
						"kind": map[string]any{
							"type": "string",
							"enum": []string{"behavioral", "technical", "situational", "case_study"},
						},
						"expectedDurationSeconds": map[string]any{
							"type": "integer", "minimum": 30, "maximum": 3600,
						},
						"evaluationCriteria": map[string]any{
							"type":     "array",
							"minItems": 1,
							"items":    map[string]any{"type": "string", "minLength": 1},
						},
					},
					"required": []string{"text", "kind", "evaluationCriteria"},
				},
			},
		},
		"required": []string{"questions"},
	})

	// feedbackSchema bounds answer-analysis output for non-technical kinds
	feedbackSchema = mustCompileSchema("feedback", feedbackDefinition(false))

	// technicalFeedbackSchema additionally requires technicalAccuracy
	technicalFeedbackSchema = mustCompileSchema("feedback_technical", feedbackDefinition(true))
)
