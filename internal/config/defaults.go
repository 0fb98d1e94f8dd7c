package config

import (
	"time"

	"git.home.luguber.info/inful/articleforge/internal/foundation/normalization"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// appliers run in this order.
var appliers = []DefaultApplier{
	&LoggingDefaultApplier{},
	&ProvidersDefaultApplier{},
	&StorageDefaultApplier{},
	&EventsDefaultApplier{},
	&NotifyDefaultApplier{},
	&MetricsDefaultApplier{},
	&PipelineDefaultApplier{},
}

// ApplyDefaults runs every domain applier over cfg.
func ApplyDefaults(cfg *Config) error {
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// normalizeEnum maps empty input to the default and known input to its canonical
// value. Unknown input is returned unchanged so validation can report it.
func normalizeEnum[T ~string](n *normalization.Normalizer[T], v T) T {
	if v == "" {
		return n.Default()
	}
	if norm, ok := n.Lookup(string(v)); ok {
		return norm
	}
	return v
}

// LoggingDefaultApplier handles logging defaults.
type LoggingDefaultApplier struct{}

func (LoggingDefaultApplier) Domain() string { return "logging" }

func (LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

// ProvidersDefaultApplier handles provider defaults.
type ProvidersDefaultApplier struct{}

func (ProvidersDefaultApplier) Domain() string { return "providers" }

func (ProvidersDefaultApplier) ApplyDefaults(cfg *Config) error {
	t := &cfg.Providers.Text
	t.Provider = normalizeEnum(textProviderNormalizer, t.Provider)
	if t.Model == "" {
		switch t.Provider {
		case TextProviderOpenAI:
			t.Model = "gpt-4o"
		case TextProviderAnthropic:
			t.Model = "claude-sonnet-4-5"
		case TextProviderGoogle:
			t.Model = "gemini-2.5-flash"
		case TextProviderMock:
			t.Model = "mock"
		}
	}
	if t.MaxTokens <= 0 {
		t.MaxTokens = 4096
	}
	if t.Temperature <= 0 {
		t.Temperature = 0.7
	}
	if t.Timeout <= 0 {
		t.Timeout = 2 * time.Minute
	}

	img := &cfg.Providers.Images
	img.Provider = normalizeEnum(imageProviderNormalizer, img.Provider)
	if img.Model == "" && img.Provider == ImageProviderOpenAI {
		img.Model = "dall-e-3"
	}
	if img.Timeout <= 0 {
		img.Timeout = 2 * time.Minute
	}

	s := &cfg.Providers.SERP
	s.Provider = normalizeEnum(serpProviderNormalizer, s.Provider)
	if s.ResultCount <= 0 {
		s.ResultCount = 10
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	return nil
}

// StorageDefaultApplier handles article store defaults.
type StorageDefaultApplier struct{}

func (StorageDefaultApplier) Domain() string { return "storage" }

func (StorageDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Storage.Driver = normalizeEnum(storageDriverNormalizer, cfg.Storage.Driver)
	if cfg.Storage.Driver == StorageSQLite && cfg.Storage.Path == "" {
		cfg.Storage.Path = "articleforge.db"
	}
	return nil
}

// EventsDefaultApplier handles event log defaults.
type EventsDefaultApplier struct{}

func (EventsDefaultApplier) Domain() string { return "events" }

func (EventsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Events.Enabled && cfg.Events.Path == "" {
		cfg.Events.Path = "articleforge-events.db"
	}
	return nil
}

// NotifyDefaultApplier handles NATS notification defaults.
type NotifyDefaultApplier struct{}

func (NotifyDefaultApplier) Domain() string { return "notify" }

func (NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify.SubjectPrefix == "" {
		cfg.Notify.SubjectPrefix = "articleforge.runs"
	}
	if cfg.Notify.Timeout <= 0 {
		cfg.Notify.Timeout = 5 * time.Second
	}
	return nil
}

// MetricsDefaultApplier handles metrics endpoint defaults.
type MetricsDefaultApplier struct{}

func (MetricsDefaultApplier) Domain() string { return "metrics" }

func (MetricsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9090"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	return nil
}

// PipelineDefaultApplier handles orchestrator defaults.
type PipelineDefaultApplier struct{}

func (PipelineDefaultApplier) Domain() string { return "pipeline" }

func (PipelineDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Pipeline.BatchConcurrency <= 0 {
		cfg.Pipeline.BatchConcurrency = 2
	}
	return nil
}
