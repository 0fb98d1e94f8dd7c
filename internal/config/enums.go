package config

import "git.home.luguber.info/inful/articleforge/internal/foundation/normalization"

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer("log level", map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

func NormalizeLogLevel(raw string) LogLevel { return logLevelNormalizer.Normalize(raw) }

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer("log format", map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

func NormalizeLogFormat(raw string) LogFormat { return logFormatNormalizer.Normalize(raw) }

// TextProvider names a text generation backend.
type TextProvider string

const (
	TextProviderOpenAI    TextProvider = "openai"
	TextProviderAnthropic TextProvider = "anthropic"
	TextProviderGoogle    TextProvider = "google"
	TextProviderMock      TextProvider = "mock"
)

var textProviderNormalizer = normalization.NewNormalizer("text provider", map[string]TextProvider{
	"openai":    TextProviderOpenAI,
	"anthropic": TextProviderAnthropic,
	"claude":    TextProviderAnthropic,
	"google":    TextProviderGoogle,
	"gemini":    TextProviderGoogle,
	"mock":      TextProviderMock,
}, TextProviderMock)

// ImageProvider names an image generation backend.
type ImageProvider string

const (
	ImageProviderOpenAI ImageProvider = "openai"
	ImageProviderMock   ImageProvider = "mock"
)

var imageProviderNormalizer = normalization.NewNormalizer("image provider", map[string]ImageProvider{
	"openai": ImageProviderOpenAI,
	"dalle":  ImageProviderOpenAI,
	"mock":   ImageProviderMock,
}, ImageProviderMock)

// SERPProvider names a search results backend.
type SERPProvider string

const (
	SERPProviderHTTP SERPProvider = "http"
	SERPProviderMock SERPProvider = "mock"
)

var serpProviderNormalizer = normalization.NewNormalizer("serp provider", map[string]SERPProvider{
	"http": SERPProviderHTTP,
	"mock": SERPProviderMock,
}, SERPProviderMock)

// StorageDriver names an article store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"
	StorageSQLite   StorageDriver = "sqlite"
	StoragePostgres StorageDriver = "postgres"
)

var storageDriverNormalizer = normalization.NewNormalizer("storage driver", map[string]StorageDriver{
	"memory":     StorageMemory,
	"sqlite":     StorageSQLite,
	"postgres":   StoragePostgres,
	"postgresql": StoragePostgres,
	"pg":         StoragePostgres,
}, StorageMemory)
