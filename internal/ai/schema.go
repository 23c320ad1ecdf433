package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSON schemas for model responses. Responses that fail validation are
// rejected before any result reaches the pipeline.
const shortlistSchema = `{
  "type": "object",
  "required": ["matches"],
  "properties": {
    "matches": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["url", "title"],
        "properties": {
          "url":    {"type": "string", "minLength": 1},
          "title":  {"type": "string", "minLength": 1},
          "reason": {"type": "string"}
        }
      }
    }
  }
}`

const analysisSchema = `{
  "type": "object",
  "required": ["results"],
  "properties": {
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["url", "title", "suitabilityScore"],
        "properties": {
          "url":                 {"type": "string", "minLength": 1},
          "title":               {"type": "string", "minLength": 1},
          "suitabilityScore":    {"type": "integer", "minimum": 0, "maximum": 100},
          "goodFitReasons":      {"type": "array", "items": {"type": "string"}},
          "considerationPoints": {"type": "array", "items": {"type": "string"}},
          "stretchGoals":        {"type": "array", "items": {"type": "string"}},
          "location":            {"type": "string"},
          "techStack":           {"type": "array", "items": {"type": "string"}},
          "salary":              {"type": "string"},
          "visaSponsorship":     {"type": "boolean"}
        }
      }
    }
  }
}`

// ResponseError indicates the model returned JSON that does not match the
// expected response schema.
type ResponseError struct {
	Schema string
	Issues []string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("invalid %s response: %s", e.Schema, strings.Join(e.Issues, "; "))
}

// validateAgainst checks a raw JSON string against a schema string.
func validateAgainst(schemaName, schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate %s response: %w", schemaName, err)
	}
	if result.Valid() {
		return nil
	}

	respErr := &ResponseError{Schema: schemaName}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		respErr.Issues = append(respErr.Issues, fmt.Sprintf("%s: %s", field, desc.Description()))
	}
	return respErr
}

// ParseShortlistResponse validates and decodes a shortlist model response.
func ParseShortlistResponse(raw string) (*ShortlistResponse, error) {
	raw = CleanJSONBlock(raw)
	if err := validateAgainst("shortlist", shortlistSchema, raw); err != nil {
		return nil, err
	}
	var resp ShortlistResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode shortlist response: %w", err)
	}
	if resp.Matches == nil {
		resp.Matches = []ShortlistMatch{}
	}
	return &resp, nil
}

// ParseAnalysisResponse validates and decodes a deep analysis model response.
func ParseAnalysisResponse(raw string) (*AnalysisResponse, error) {
	raw = CleanJSONBlock(raw)
	if err := validateAgainst("analysis", analysisSchema, raw); err != nil {
		return nil, err
	}
	var resp AnalysisResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}
	if resp.Results == nil {
		resp.Results = []AnalysisResult{}
	}
	return &resp, nil
}
