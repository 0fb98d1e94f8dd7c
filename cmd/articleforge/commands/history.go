package commands

import (
	"context"
	"os"

	"git.home.luguber.info/inful/articleforge/internal/eventstore"
	"git.home.luguber.info/inful/articleforge/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to show" default:"20"`
	RunID string `name:"run" help:"Show a single run"`
}

func (h *HistoryCmd) Run(global *Global, root *CLI) error {
	cfg, err := loadConfig(global, root)
	if err != nil {
		return err
	}
	if !cfg.Events.Enabled {
		return errors.ConfigError("event log is disabled (set events.enabled)").
			WithContext("path", root.Config).Build()
	}

	store, err := eventstore.NewSQLiteStore(cfg.Events.Path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryEventStore, "failed to open event store").
			WithContext("path", cfg.Events.Path).Build()
	}
	defer func() { _ = store.Close() }()

	projection := eventstore.NewRunHistoryProjection(store, h.Limit)
	if err := projection.Rebuild(context.Background()); err != nil {
		return errors.WrapError(err, errors.CategoryEventStore, "failed to read run history").Build()
	}

	if h.RunID != "" {
		summary, ok := projection.GetRun(h.RunID)
		if !ok {
			return errors.NotFoundError("run not found").WithContext("run_id", h.RunID).Build()
		}
		return writeJSON(os.Stdout, summary)
	}
	return writeJSON(os.Stdout, projection.GetHistory())
}
