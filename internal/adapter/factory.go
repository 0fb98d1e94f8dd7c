package adapter

import (
	"context"

	"git.home.luguber.info/inful/articleforge/internal/config"
	ferrors "git.home.luguber.info/inful/articleforge/internal/foundation/errors"
)

// NewTextGenerator constructs the configured text provider.
func NewTextGenerator(ctx context.Context, cfg config.TextProviderConfig) (TextGenerator, error) {
	var (
		gen TextGenerator
		err error
	)
	switch cfg.Provider {
	case config.TextProviderOpenAI:
		gen, err = NewOpenAIText(cfg.APIKey, cfg.Model, cfg.Timeout)
	case config.TextProviderAnthropic:
		gen, err = NewAnthropicText(cfg.APIKey, cfg.Model, cfg.Timeout)
	case config.TextProviderGoogle:
		gen, err = NewGoogleText(ctx, cfg.APIKey, cfg.Model, cfg.Timeout)
	case config.TextProviderMock:
		return NewMockText(), nil
	default:
		return nil, ferrors.ConfigError("unsupported text provider").WithContext("provider", string(cfg.Provider)).Build()
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to create text provider").
			WithContext("provider", string(cfg.Provider)).Build()
	}
	return gen, nil
}

// NewImageGenerator constructs the configured image provider.
func NewImageGenerator(cfg config.ImageProviderConfig) (ImageGenerator, error) {
	switch cfg.Provider {
	case config.ImageProviderOpenAI:
		gen, err := NewOpenAIImages(cfg.APIKey, cfg.Model, cfg.Timeout)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to create image provider").Build()
		}
		return gen, nil
	case config.ImageProviderMock:
		return NewMockImages(), nil
	default:
		return nil, ferrors.ConfigError("unsupported image provider").WithContext("provider", string(cfg.Provider)).Build()
	}
}
