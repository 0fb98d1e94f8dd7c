package commands

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/articleforge/internal/app"
	"git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/metrics"
	"git.home.luguber.info/inful/articleforge/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

// ScheduleCmd implements the 'schedule' command.
type ScheduleCmd struct {
	RunNow []string `name:"run-now" help:"Trigger these entries once at startup"`
}

func (s *ScheduleCmd) Run(global *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := openRuntime(ctx, global, root)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if len(rt.Config.Schedule) == 0 {
		return errors.ConfigError("no schedule entries configured").
			WithContext("path", root.Config).Build()
	}
	return RunSchedule(ctx, rt, s.RunNow)
}

// RunSchedule runs the content calendar until ctx is done.
func RunSchedule(ctx context.Context, rt *app.Runtime, runNow []string) error {
	cal, err := scheduler.NewCalendar(rt)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to create scheduler").Build()
	}
	for _, entry := range rt.Config.Schedule {
		if err := cal.Add(entry); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid schedule entry").
				WithContext("name", entry.Name).Build()
		}
	}

	var srv *http.Server
	errChan := make(chan error, 1)
	if rt.Config.Metrics.Enabled && rt.Registry != nil {
		mux := http.NewServeMux()
		mux.Handle(rt.Config.Metrics.Path, metrics.HTTPHandler(rt.Registry))
		srv = &http.Server{
			Addr:              rt.Config.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("Serving metrics", slog.String("addr", srv.Addr), slog.String("path", rt.Config.Metrics.Path))
			if err := srv.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	cal.Start()
	for _, name := range runNow {
		if err := cal.Trigger(name); err != nil {
			slog.Warn("Failed to trigger schedule entry", slog.String("name", name), slog.Any("error", err))
		}
	}

	slog.Info("Content calendar started, waiting for shutdown signal...", slog.Int("entries", len(cal.Entries())))

	var runErr error
	select {
	case err := <-errChan:
		runErr = errors.WrapError(err, errors.CategoryRuntime, "metrics server failed").Build()
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping content calendar...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()

	if srv != nil {
		if err := srv.Shutdown(stopCtx); err != nil {
			slog.Warn("Metrics server shutdown failed", slog.Any("error", err))
		}
	}
	if err := cal.Stop(); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to stop scheduler").Build()
	}

	slog.Info("Content calendar stopped")
	return runErr
}
