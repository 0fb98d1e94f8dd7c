package stages

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/articleforge/internal/adapter"
	"git.home.luguber.info/inful/articleforge/internal/markdown"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

// ImageGeneration produces the featured image and inline section images.
// Provider errors fail the stage.
func (s *Stages) ImageGeneration(ctx context.Context, ec *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
	if s.deps.Images == nil {
		return data, fmt.Errorf("%w: image generator", ErrNotConfigured)
	}
	if data.Draft == nil {
		return data, ErrNoDraft
	}
	style := ec.Options.ImageStyle
	var images []models.GeneratedImage

	if ec.Options.GenerateFeaturedImage {
		prompt := fmt.Sprintf("A %s featured image for an article titled %q about %s.", style, data.Draft.Title, ec.Keyword)
		img, err := s.image(ctx, prompt, style, adapter.ImageLandscape)
		if err != nil {
			return data, fmt.Errorf("featured image: %w", err)
		}
		img.Kind = models.ImageFeatured
		img.AltText = data.Draft.Title
		images = append(images, img)
	}

	if ec.Options.GenerateInlineImages {
		for i, heading := range inlineSubjects(data, ec.Options.InlineImageCount) {
			prompt := fmt.Sprintf("A %s illustration for the section %q of an article about %s.", style, heading, ec.Keyword)
			img, err := s.image(ctx, prompt, style, adapter.ImageSquare)
			if err != nil {
				return data, fmt.Errorf("inline image %d: %w", i+1, err)
			}
			img.Kind = models.ImageInline
			img.AltText = heading
			images = append(images, img)
		}
	}

	data.Images = images
	return data, nil
}

func (s *Stages) image(ctx context.Context, prompt string, style models.ImageStyle, size adapter.ImageSize) (models.GeneratedImage, error) {
	resp, err := s.deps.Images.GenerateImage(ctx, adapter.ImageRequest{Prompt: prompt, Style: string(style), Size: size})
	if err != nil {
		return models.GeneratedImage{}, err
	}
	return models.GeneratedImage{URL: resp.URL, Prompt: prompt, Style: style}, nil
}

// inlineSubjects picks section headings to illustrate: the outline first, then
// the draft's own subheadings.
func inlineSubjects(data models.PipelineData, limit int) []string {
	var out []string
	for _, sec := range data.Outline {
		out = append(out, sec.Heading)
	}
	if len(out) == 0 && data.Draft != nil {
		for _, h := range markdown.Analyze([]byte(data.Draft.Content)).Headings {
			if h.Level > 1 {
				out = append(out, h.Text)
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
