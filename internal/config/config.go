// Package config loads the articleforge YAML configuration.
package config

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

// Config represents the application configuration.
type Config struct {
	Version   string          `yaml:"version"`
	Logging   LoggingConfig   `yaml:"logging"`
	Providers ProvidersConfig `yaml:"providers"`
	Storage   StorageConfig   `yaml:"storage"`
	Events    EventsConfig    `yaml:"events"`
	Notify    NotifyConfig    `yaml:"notify"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Schedule  []ScheduleEntry `yaml:"schedule,omitempty"`
}

// LoggingConfig controls the process-wide slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// ProvidersConfig groups the external collaborators.
type ProvidersConfig struct {
	Text   TextProviderConfig  `yaml:"text"`
	Images ImageProviderConfig `yaml:"images"`
	SERP   SERPProviderConfig  `yaml:"serp"`
}

// TextProviderConfig selects the text generation backend.
type TextProviderConfig struct {
	Provider    TextProvider  `yaml:"provider"`
	Model       string        `yaml:"model,omitempty"`
	APIKey      string        `yaml:"api_key,omitempty"`
	MaxTokens   int           `yaml:"max_tokens,omitempty"`
	Temperature float64       `yaml:"temperature,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// ImageProviderConfig selects the image generation backend.
type ImageProviderConfig struct {
	Provider ImageProvider `yaml:"provider"`
	Model    string        `yaml:"model,omitempty"`
	APIKey   string        `yaml:"api_key,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// SERPProviderConfig selects the search results backend.
type SERPProviderConfig struct {
	Provider    SERPProvider  `yaml:"provider"`
	Endpoint    string        `yaml:"endpoint,omitempty"`
	APIKey      string        `yaml:"api_key,omitempty"`
	ResultCount int           `yaml:"result_count,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// StorageConfig selects the article store.
type StorageConfig struct {
	Driver   StorageDriver `yaml:"driver"`
	Path     string        `yaml:"path,omitempty"` // sqlite
	URL      string        `yaml:"url,omitempty"`  // postgres
	MaxConns int32         `yaml:"max_conns,omitempty"`
	MinConns int32         `yaml:"min_conns,omitempty"`
}

// EventsConfig enables the run event log.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// NotifyConfig enables NATS run notifications.
type NotifyConfig struct {
	Enabled       bool          `yaml:"enabled"`
	URL           string        `yaml:"url,omitempty"`
	SubjectPrefix string        `yaml:"subject_prefix,omitempty"`
	Stream        string        `yaml:"stream,omitempty"` // JetStream stream; empty uses core NATS
	Timeout       time.Duration `yaml:"timeout,omitempty"`
}

// MetricsConfig enables the Prometheus endpoint of the scheduler daemon.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// PipelineConfig tunes the orchestrator.
type PipelineConfig struct {
	StageTimeout     time.Duration          `yaml:"stage_timeout,omitempty"`
	BatchConcurrency int                    `yaml:"batch_concurrency,omitempty"`
	Defaults         *models.PartialOptions `yaml:"defaults,omitempty"`
}

// ScheduleEntry is one content calendar job: every tick runs the pipeline once per keyword.
type ScheduleEntry struct {
	Name       string                 `yaml:"name"`
	Cron       string                 `yaml:"cron"`
	TenantID   string                 `yaml:"tenant_id"`
	CallerID   string                 `yaml:"caller_id"`
	ProductRef string                 `yaml:"product_ref,omitempty"`
	Keywords   []string               `yaml:"keywords"`
	Options    *models.PartialOptions `yaml:"options,omitempty"`
}

// Requests expands the entry into one pipeline request per keyword.
func (e ScheduleEntry) Requests() []models.Request {
	out := make([]models.Request, 0, len(e.Keywords))
	for _, kw := range e.Keywords {
		out = append(out, models.Request{
			SubjectKeyword: kw,
			TenantID:       e.TenantID,
			CallerID:       e.CallerID,
			ProductRef:     e.ProductRef,
			Options:        e.Options,
		})
	}
	return out
}

// Load loads configuration from the specified file, applies defaults and validates it.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").WithContext("path", configPath).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").Build()
	}
	return Parse(data)
}

// Parse decodes raw YAML (after ${VAR} expansion), applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewBufferString(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stdErrors.Is(err, io.EOF) {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
	}
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied (memory store, mock providers).
func Default() *Config {
	cfg := &Config{}
	_ = ApplyDefaults(cfg)
	return cfg
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	featured := true
	example := Config{
		Version: "1",
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Providers: ProvidersConfig{
			Text:   TextProviderConfig{Provider: TextProviderOpenAI, Model: "gpt-4o", APIKey: "${OPENAI_API_KEY}"},
			Images: ImageProviderConfig{Provider: ImageProviderOpenAI, Model: "dall-e-3", APIKey: "${OPENAI_API_KEY}"},
			SERP:   SERPProviderConfig{Provider: SERPProviderHTTP, Endpoint: "https://serp.example.com/search", APIKey: "${SERP_API_KEY}"},
		},
		Storage:  StorageConfig{Driver: StorageSQLite, Path: "./articleforge.db"},
		Events:   EventsConfig{Enabled: true, Path: "./articleforge-events.db"},
		Metrics:  MetricsConfig{Enabled: true, Listen: ":9090", Path: "/metrics"},
		Pipeline: PipelineConfig{StageTimeout: 5 * time.Minute, BatchConcurrency: 2, Defaults: &models.PartialOptions{GenerateFeaturedImage: &featured}},
		Schedule: []ScheduleEntry{{
			Name:     "weekly-coffee",
			Cron:     "0 6 * * 1",
			TenantID: "org-example",
			CallerID: "scheduler",
			Keywords: []string{"espresso machines", "pour over coffee"},
		}},
	}

	out, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.WriteFile(configPath, out, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to write config file").
			WithContext("path", configPath).Build()
	}
	fmt.Fprintf(os.Stdout, "Configuration written to %s\n", configPath)
	return nil
}
