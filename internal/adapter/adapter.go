// Package adapter wraps the text and image generation providers used by the
// pipeline stages behind two small interfaces.
package adapter

import "context"

// Purpose labels a text request for logs and for the mock generator.
type Purpose string

const (
	PurposeOutline Purpose = "outline"
	PurposeDraft   Purpose = "draft"
)

// TextRequest is one completion request.
type TextRequest struct {
	Purpose     Purpose
	Subject     string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// TextResponse is the generated text and where it came from.
type TextResponse struct {
	Text     string
	Provider string
	Model    string
}

// TextGenerator produces text from a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextRequest) (TextResponse, error)
	Name() string
}

// ImageSize is the requested aspect of a generated image.
type ImageSize string

const (
	ImageLandscape ImageSize = "landscape"
	ImageSquare    ImageSize = "square"
)

// ImageRequest is one image generation request.
type ImageRequest struct {
	Prompt string
	Style  string
	Size   ImageSize
}

// ImageResponse references the generated image.
type ImageResponse struct {
	URL           string
	RevisedPrompt string
}

// ImageGenerator produces an image from a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (ImageResponse, error)
	Name() string
}
