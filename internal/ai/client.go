// Package ai wraps the Gemini API for job shortlisting, deep suitability
// analysis and CV text extraction. Every call reports the token usage it
// consumed so callers can account against model rate limits.
package ai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Usage reports the token consumption of a single model call.
type Usage struct {
	PromptTokens int
	OutputTokens int
	TotalTokens  int
}

// Client is an abstraction over the LLM provider.
type Client interface {
	// GenerateJSON generates a JSON response for the prompt and reports usage.
	GenerateJSON(ctx context.Context, prompt string) (string, Usage, error)
	// ExtractDocumentText extracts plain text from an inline document.
	ExtractDocumentText(ctx context.Context, instruction string, mimeType string, data []byte) (string, Usage, error)
	// ModelName returns the configured model identifier.
	ModelName() string
	// Close releases any resources held by the client.
	Close() error
}

// GeminiClient implements Client for Google Gemini.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new Gemini client for the given model.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// GenerateJSON generates a JSON response for the prompt and reports usage.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string) (string, Usage, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.1) // Low temperature for consistent output
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", usageFromResponse(resp), err
	}

	return CleanJSONBlock(text), usageFromResponse(resp), nil
}

// ExtractDocumentText sends an inline document together with an instruction
// and returns the extracted plain text.
func (c *GeminiClient) ExtractDocumentText(ctx context.Context, instruction string, mimeType string, data []byte) (string, Usage, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.1)

	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: data},
		genai.Text(instruction),
	)
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to extract document text: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", usageFromResponse(resp), err
	}

	return text, usageFromResponse(resp), nil
}

// ModelName returns the model name the client was configured with.
func (c *GeminiClient) ModelName() string {
	return c.model
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse pulls the text parts from the first candidate.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("response candidate has no content")
	}

	var text string
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return "", fmt.Errorf("response contains no text parts")
	}
	return text, nil
}

// usageFromResponse reads token counts from the response metadata.
func usageFromResponse(resp *genai.GenerateContentResponse) Usage {
	if resp == nil || resp.UsageMetadata == nil {
		return Usage{}
	}
	return Usage{
		PromptTokens: int(resp.UsageMetadata.PromptTokenCount),
		OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
	}
}
