package serp

import (
	"git.home.luguber.info/inful/articleforge/internal/config"
	ferrors "git.home.luguber.info/inful/articleforge/internal/foundation/errors"
)

// New constructs the configured SERP provider.
func New(cfg config.SERPProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case config.SERPProviderHTTP:
		p, err := NewHTTPProvider(cfg.Endpoint, cfg.APIKey, cfg.Timeout, nil)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to create serp provider").Build()
		}
		return p, nil
	case config.SERPProviderMock:
		return NewMockProvider(), nil
	default:
		return nil, ferrors.ConfigError("unsupported serp provider").WithContext("provider", string(cfg.Provider)).Build()
	}
}
