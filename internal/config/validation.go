package config

import (
	"git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/foundation/normalization"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

// ValidateConfig validates the complete configuration after defaults were applied.
func ValidateConfig(cfg *Config) error {
	validators := []func(*Config) error{
		validateProviders,
		validateStorage,
		validateNotify,
		validatePipeline,
		validateSchedule,
	}
	for _, v := range validators {
		if err := v(cfg); err != nil {
			return err
		}
	}
	return nil
}

func enumError[T ~string](n *normalization.Normalizer[T], v T, field string) error {
	if _, err := n.NormalizeWithError(string(v)); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid configuration value").
			WithContext("field", field).UserAction().Build()
	}
	return nil
}

func validateProviders(cfg *Config) error {
	p := cfg.Providers
	if err := enumError(textProviderNormalizer, p.Text.Provider, "providers.text.provider"); err != nil {
		return err
	}
	if err := enumError(imageProviderNormalizer, p.Images.Provider, "providers.images.provider"); err != nil {
		return err
	}
	if err := enumError(serpProviderNormalizer, p.SERP.Provider, "providers.serp.provider"); err != nil {
		return err
	}
	if p.Text.Provider != TextProviderMock && p.Text.APIKey == "" {
		return errors.ConfigError("text provider requires an api_key").
			WithContext("field", "providers.text.api_key").Build()
	}
	if p.Images.Provider != ImageProviderMock && p.Images.APIKey == "" {
		return errors.ConfigError("image provider requires an api_key").
			WithContext("field", "providers.images.api_key").Build()
	}
	if p.SERP.Provider == SERPProviderHTTP && p.SERP.Endpoint == "" {
		return errors.ConfigError("http serp provider requires an endpoint").
			WithContext("field", "providers.serp.endpoint").Build()
	}
	return nil
}

func validateStorage(cfg *Config) error {
	if err := enumError(storageDriverNormalizer, cfg.Storage.Driver, "storage.driver"); err != nil {
		return err
	}
	if cfg.Storage.Driver == StoragePostgres && cfg.Storage.URL == "" {
		return errors.ConfigError("postgres storage requires a url").WithContext("field", "storage.url").Build()
	}
	if cfg.Storage.MinConns > cfg.Storage.MaxConns && cfg.Storage.MaxConns > 0 {
		return errors.ConfigError("storage.min_conns exceeds storage.max_conns").Build()
	}
	return nil
}

func validateNotify(cfg *Config) error {
	if cfg.Notify.Enabled && cfg.Notify.URL == "" {
		return errors.ConfigError("notify requires a NATS url when enabled").WithContext("field", "notify.url").Build()
	}
	return nil
}

func validatePipeline(cfg *Config) error {
	if cfg.Pipeline.StageTimeout < 0 {
		return errors.ConfigError("pipeline.stage_timeout must not be negative").Build()
	}
	if _, err := models.ResolveOptions(cfg.Pipeline.Defaults); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid pipeline.defaults").UserAction().Build()
	}
	return nil
}

func validateSchedule(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Schedule))
	for _, e := range cfg.Schedule {
		if e.Name == "" {
			return errors.ConfigError("schedule entry name cannot be empty").Build()
		}
		if seen[e.Name] {
			return errors.ConfigError("duplicate schedule entry name").WithContext("name", e.Name).Build()
		}
		seen[e.Name] = true
		if e.Cron == "" {
			return errors.ConfigError("schedule entry requires a cron expression").WithContext("name", e.Name).Build()
		}
		if len(e.Keywords) == 0 {
			return errors.ConfigError("schedule entry requires at least one keyword").WithContext("name", e.Name).Build()
		}
		for _, req := range e.Requests() {
			if err := req.Validate(); err != nil {
				return errors.WrapError(err, errors.CategoryConfig, "invalid schedule entry").
					WithContext("name", e.Name).Build()
			}
		}
		if _, err := models.ResolveOptions(cfg.Pipeline.Defaults, e.Options); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid schedule options").
				WithContext("name", e.Name).Build()
		}
	}
	return nil
}
