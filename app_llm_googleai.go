package main

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"
)

// GoogleAIProvider implements the llms.Model interface for the Google
// Gemini API using google.golang.org/genai.
type GoogleAIProvider struct {
	client          *genai.Client
	model           string
	searchGrounding bool
}

// GoogleAIConfig holds the settings for a GoogleAIProvider.
type GoogleAIConfig struct {
	Model  string
	APIKey string
	// SearchGrounding attaches the Google Search tool to every request,
	// used for the fact-gathering step of the pipeline.
	SearchGrounding bool
}

// NewGoogleAIProvider creates a new GoogleAIProvider instance
func NewGoogleAIProvider(ctx context.Context, config GoogleAIConfig) (*GoogleAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("no Gemini API key available (GEMINI_API_KEY / GOOGLE_API_KEY)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create googleai client: %w", err)
	}

	return &GoogleAIProvider{
		client:          client,
		model:           config.Model,
		searchGrounding: config.SearchGrounding,
	}, nil
}

// GenerateText sends a text generation request to the Gemini API.
// responseMIMEType selects plain-text or JSON output; an empty value
// leaves the API default in place.
func (p *GoogleAIProvider) GenerateText(ctx context.Context, prompt string, responseMIMEType string) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("googleai client not initialized")
	}

	genConfig := &genai.GenerateContentConfig{}
	if responseMIMEType != "" {
		genConfig.ResponseMIMEType = responseMIMEType
	}
	if p.searchGrounding {
		genConfig.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), genConfig)
	if err != nil {
		return "", fmt.Errorf("googleai GenerateContent API error: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("googleai GenerateContent API returned empty response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("googleai GenerateContent API returned a candidate with no content")
	}

	// Skip thinking parts
	for _, part := range candidate.Content.Parts {
		if !part.Thought && part.Text != "" {
			return part.Text, nil
		}
	}

	return "", fmt.Errorf("googleai GenerateContent API returned no text parts")
}

/*
GenerateContent implements the llms.Model interface for GoogleAIProvider.
It adapts a single-message prompt to the Google Gemini API and wraps the
result. When JSON mode is requested via llms.WithJSONMode, the response
MIME type is set to application/json.
*/
func (p *GoogleAIProvider) GenerateContent(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	if len(messages) == 0 || len(messages[0].Parts) == 0 {
		return nil, fmt.Errorf("no prompt provided")
	}
	textPart, ok := messages[0].Parts[0].(llms.TextContent)
	if !ok {
		return nil, fmt.Errorf("first message part is not TextContent")
	}

	callOpts := llms.CallOptions{}
	for _, opt := range opts {
		opt(&callOpts)
	}
	responseMIMEType := "text/plain"
	if callOpts.JSONMode {
		responseMIMEType = "application/json"
	}

	result, err := p.GenerateText(ctx, textPart.Text, responseMIMEType)
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content: result,
			},
		},
	}, nil
}

// Call implements the llms.Model interface for compatibility with langchaingo.
// It takes a plain string prompt and returns the generated text.
func (p *GoogleAIProvider) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return p.GenerateText(ctx, prompt, "")
}

// ProviderName returns the provider name
func (p *GoogleAIProvider) ProviderName() string {
	return "googleai"
}
