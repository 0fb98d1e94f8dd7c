package commands

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/articleforge/internal/app"
	"git.home.luguber.info/inful/articleforge/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" help:"Run the pipeline once for a single keyword"`
	Batch    BatchCmd    `cmd:"" help:"Run the pipeline for every keyword in a file"`
	Schedule ScheduleCmd `cmd:"" help:"Run the content calendar from the configuration"`
	History  HistoryCmd  `cmd:"" help:"Show recent runs from the event log"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := config.LogLevelInfo
	if c.Verbose {
		level = config.LogLevelDebug
	}
	g.Logger = newLogger(level, config.LogFormatText)
	slog.SetDefault(g.Logger)
	return nil
}

// newLogger builds the process logger. Logs go to stderr; stdout carries results.
func newLogger(level config.LogLevel, format config.LogFormat) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogLevelDebug:
		lvl = slog.LevelDebug
	case config.LogLevelWarn:
		lvl = slog.LevelWarn
	case config.LogLevelError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// loadConfig loads the root configuration and re-applies its logging section.
// The verbose flag always wins over the configured level.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if root.Verbose {
		level = config.LogLevelDebug
	}
	g.Logger = newLogger(level, cfg.Logging.Format)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// openRuntime loads configuration and assembles the pipeline.
func openRuntime(ctx context.Context, g *Global, root *CLI, opts ...app.Option) (*app.Runtime, error) {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, opts...)
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
