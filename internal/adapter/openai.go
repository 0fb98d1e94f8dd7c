package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIText implements TextGenerator with the OpenAI chat completions API.
type OpenAIText struct {
	client openai.Client
	model  string
}

// NewOpenAIText creates a new OpenAI text generator.
// Extra request options (e.g. a base URL) are appended to the defaults.
func NewOpenAIText(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) (*OpenAIText, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	client := openai.NewClient(clientOptions(apiKey, timeout, opts)...)
	return &OpenAIText{client: client, model: model}, nil
}

// Name returns the adapter identifier.
func (a *OpenAIText) Name() string { return "openai" }

// GenerateText sends the prompt to OpenAI and returns the first choice.
func (a *OpenAIText) GenerateText(ctx context.Context, req TextRequest) (TextResponse, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(a.model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return TextResponse{}, wrapProviderError(a.Name(), err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return TextResponse{}, wrapProviderError(a.Name(), ErrEmptyResponse)
	}
	return TextResponse{Text: resp.Choices[0].Message.Content, Provider: a.Name(), Model: a.model}, nil
}

// OpenAIImages implements ImageGenerator with the OpenAI images API.
type OpenAIImages struct {
	client openai.Client
	model  string
}

// NewOpenAIImages creates a new OpenAI image generator.
func NewOpenAIImages(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) (*OpenAIImages, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if model == "" {
		model = string(openai.ImageModelDallE3)
	}
	client := openai.NewClient(clientOptions(apiKey, timeout, opts)...)
	return &OpenAIImages{client: client, model: model}, nil
}

// Name returns the adapter identifier.
func (a *OpenAIImages) Name() string { return "openai" }

// GenerateImage requests a single image and returns its URL.
func (a *OpenAIImages) GenerateImage(ctx context.Context, req ImageRequest) (ImageResponse, error) {
	params := openai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  openai.ImageModel(a.model),
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize1024x1024,
		Style:  openai.ImageGenerateParamsStyleNatural,
	}
	if req.Size == ImageLandscape {
		params.Size = openai.ImageGenerateParamsSize1792x1024
	}
	// The API only distinguishes natural from vivid; the requested style is carried in the prompt.
	if req.Style == "illustration" || req.Style == "abstract" {
		params.Style = openai.ImageGenerateParamsStyleVivid
	}

	resp, err := a.client.Images.Generate(ctx, params)
	if err != nil {
		return ImageResponse{}, wrapProviderError(a.Name(), err)
	}
	if resp == nil || len(resp.Data) == 0 {
		return ImageResponse{}, wrapProviderError(a.Name(), ErrEmptyResponse)
	}
	img := resp.Data[0]
	url := img.URL
	if url == "" && img.B64JSON != "" {
		url = "data:image/png;base64," + img.B64JSON
	}
	if url == "" {
		return ImageResponse{}, wrapProviderError(a.Name(), ErrEmptyResponse)
	}
	return ImageResponse{URL: url, RevisedPrompt: img.RevisedPrompt}, nil
}

func clientOptions(apiKey string, timeout time.Duration, extra []option.RequestOption) []option.RequestOption {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return append(opts, extra...)
}
