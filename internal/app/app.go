// Package app assembles an orchestrator and its collaborators from configuration.
package app

import (
	"context"
	stdErrors "errors"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/articleforge/internal/adapter"
	"git.home.luguber.info/inful/articleforge/internal/config"
	"git.home.luguber.info/inful/articleforge/internal/eventstore"
	ferrors "git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/logfields"
	"git.home.luguber.info/inful/articleforge/internal/metrics"
	"git.home.luguber.info/inful/articleforge/internal/notify"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/orchestrator"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/stages"
	"git.home.luguber.info/inful/articleforge/internal/serp"
	"git.home.luguber.info/inful/articleforge/internal/store"
)

// historySize bounds the in-memory run history projection.
const historySize = 200

// Runtime is a fully wired pipeline plus the resources it owns.
type Runtime struct {
	Config       *config.Config
	Orchestrator *orchestrator.Orchestrator
	Store        store.ArticleStore
	Events       eventstore.Store
	History      *eventstore.RunHistoryProjection
	Registry     *prom.Registry

	closers []func() error
}

// Option customizes New.
type Option func(*buildOptions)

type buildOptions struct {
	registry  *prom.Registry
	observers []models.RunObserver
}

// WithMetricsRegistry records pipeline metrics into reg regardless of cfg.Metrics.Enabled.
func WithMetricsRegistry(reg *prom.Registry) Option {
	return func(o *buildOptions) { o.registry = reg }
}

// WithObservers attaches extra run observers.
func WithObservers(obs ...models.RunObserver) Option {
	return func(o *buildOptions) { o.observers = append(o.observers, obs...) }
}

// New opens the store, providers, event log and notifier described by cfg
// and builds the default eight-stage orchestrator on top of them.
// On error every resource opened so far is closed.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (_ *Runtime, err error) {
	if cfg == nil {
		return nil, ferrors.ConfigError("configuration is required").Build()
	}
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	rt := &Runtime{Config: cfg, Registry: bo.registry}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	rt.Store, err = store.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, rt.Store.Close)

	text, err := adapter.NewTextGenerator(ctx, cfg.Providers.Text)
	if err != nil {
		return nil, err
	}
	images, err := adapter.NewImageGenerator(cfg.Providers.Images)
	if err != nil {
		return nil, err
	}
	search, err := serp.New(cfg.Providers.SERP)
	if err != nil {
		return nil, err
	}

	reg, err := stages.NewDefaultRegistry(stages.Dependencies{
		SERP:            search,
		Text:            text,
		Images:          images,
		Articles:        rt.Store,
		SERPResultCount: cfg.Providers.SERP.ResultCount,
		MaxTokens:       cfg.Providers.Text.MaxTokens,
		Temperature:     cfg.Providers.Text.Temperature,
	})
	if err != nil {
		return nil, err
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithStageTimeout(cfg.Pipeline.StageTimeout),
		orchestrator.WithDefaults(cfg.Pipeline.Defaults),
	}

	if cfg.Events.Enabled {
		events, evErr := eventstore.NewSQLiteStore(cfg.Events.Path)
		if evErr != nil {
			return nil, ferrors.WrapError(evErr, ferrors.CategoryEventStore, "failed to open event store").
				WithContext("path", cfg.Events.Path).Build()
		}
		rt.Events = events
		rt.closers = append(rt.closers, events.Close)
		rt.History = eventstore.NewRunHistoryProjection(events, historySize)
		if rbErr := rt.History.Rebuild(ctx); rbErr != nil {
			slog.Warn("Failed to rebuild run history", logfields.Error(rbErr))
		}
		orchOpts = append(orchOpts, orchestrator.WithObserver(eventstore.NewObserver(events, rt.History)))
	}

	if cfg.Notify.Enabled {
		pub, nErr := notify.Connect(ctx, cfg.Notify)
		if nErr != nil {
			return nil, nErr
		}
		rt.closers = append(rt.closers, pub.Close)
		orchOpts = append(orchOpts, orchestrator.WithObserver(notify.NewNotifier(pub, cfg.Notify.SubjectPrefix, cfg.Notify.Timeout)))
	}

	if rt.Registry == nil && cfg.Metrics.Enabled {
		rt.Registry = prom.NewRegistry()
	}
	if rt.Registry != nil {
		orchOpts = append(orchOpts, orchestrator.WithRecorder(metrics.NewPrometheusRecorder(rt.Registry)))
	}

	orchOpts = append(orchOpts, orchestrator.WithObserver(bo.observers...))

	rt.Orchestrator, err = orchestrator.New(reg, rt.Store, orchOpts...)
	if err != nil {
		return nil, err
	}

	slog.Debug("Runtime assembled",
		slog.String("storage", string(cfg.Storage.Driver)),
		logfields.Provider(string(cfg.Providers.Text.Provider)),
		slog.Bool("events", cfg.Events.Enabled),
		slog.Bool("notify", cfg.Notify.Enabled))
	return rt, nil
}

// Run executes one pipeline run.
func (r *Runtime) Run(ctx context.Context, req models.Request) (*models.RunResult, error) {
	return r.Orchestrator.Run(ctx, req)
}

// Close releases resources in reverse order of acquisition.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return stdErrors.Join(errs...)
}
