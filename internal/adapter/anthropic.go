package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicText implements TextGenerator for Claude models.
type AnthropicText struct {
	client anthropic.Client
	model  string
}

// NewAnthropicText creates a new Anthropic text generator.
func NewAnthropicText(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) (*AnthropicText, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(timeout))
	}
	client := anthropic.NewClient(append(reqOpts, opts...)...)
	return &AnthropicText{client: client, model: model}, nil
}

// Name returns the adapter identifier.
func (a *AnthropicText) Name() string { return "anthropic" }

// GenerateText sends the prompt to Claude and concatenates the text blocks.
func (a *AnthropicText) GenerateText(ctx context.Context, req TextRequest) (TextResponse, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return TextResponse{}, wrapProviderError(a.Name(), err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(content.String()) == "" {
		return TextResponse{}, wrapProviderError(a.Name(), ErrEmptyResponse)
	}
	return TextResponse{Text: content.String(), Provider: a.Name(), Model: a.model}, nil
}
