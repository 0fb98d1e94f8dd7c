package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GoogleText implements TextGenerator for Gemini models.
type GoogleText struct {
	client *genai.Client
	model  string
}

// NewGoogleText creates a new Gemini text generator.
func NewGoogleText(ctx context.Context, apiKey, model string, timeout time.Duration) (*GoogleText, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}
	return &GoogleText{client: client, model: model}, nil
}

// Name returns the adapter identifier.
func (a *GoogleText) Name() string { return "google" }

// GenerateText sends the prompt to Gemini.
func (a *GoogleText) GenerateText(ctx context.Context, req TextRequest) (TextResponse, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return TextResponse{}, wrapProviderError(a.Name(), err)
	}
	if resp == nil {
		return TextResponse{}, wrapProviderError(a.Name(), ErrEmptyResponse)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return TextResponse{}, wrapProviderError(a.Name(), ErrEmptyResponse)
	}
	return TextResponse{Text: text, Provider: a.Name(), Model: a.model}, nil
}
