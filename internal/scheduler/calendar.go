// Package scheduler runs content calendar entries on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/articleforge/internal/config"
	"git.home.luguber.info/inful/articleforge/internal/logfields"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, req models.Request) (*models.RunResult, error)
}

// Calendar wraps a gocron scheduler. Each tick of an entry runs the pipeline
// once per keyword, sequentially; a tick that is still running when the next
// one fires causes that next tick to be skipped.
type Calendar struct {
	scheduler gocron.Scheduler
	runner    Runner

	mu   sync.Mutex
	jobs map[string]gocron.Job
}

// NewCalendar creates a calendar that dispatches to runner.
func NewCalendar(runner Runner, opts ...gocron.SchedulerOption) (*Calendar, error) {
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Calendar{scheduler: s, runner: runner, jobs: make(map[string]gocron.Job)}, nil
}

// Add registers a calendar entry.
func (c *Calendar) Add(entry config.ScheduleEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.jobs[entry.Name]; exists {
		return fmt.Errorf("duplicate schedule entry %q", entry.Name)
	}

	job, err := c.scheduler.NewJob(
		gocron.CronJob(entry.Cron, false),
		gocron.NewTask(c.execute, entry),
		gocron.WithName(entry.Name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule entry %q: %w", entry.Name, err)
	}
	c.jobs[entry.Name] = job
	return nil
}

// Start begins the scheduler.
func (c *Calendar) Start() {
	slog.Info("Starting content calendar", slog.Int("entries", len(c.jobs)))
	c.scheduler.Start()
}

// Stop shuts the scheduler down and waits for running ticks.
func (c *Calendar) Stop() error {
	slog.Info("Stopping content calendar")
	return c.scheduler.Shutdown()
}

// Trigger runs the named entry immediately, outside its cron schedule.
func (c *Calendar) Trigger(name string) error {
	c.mu.Lock()
	job, ok := c.jobs[name]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown schedule entry %q", name)
	}
	return job.RunNow()
}

// Entries returns the registered entry names.
func (c *Calendar) Entries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.jobs))
	for name := range c.jobs {
		out = append(out, name)
	}
	return out
}

// execute is called by gocron; the job context is cancelled on shutdown.
func (c *Calendar) execute(ctx context.Context, entry config.ScheduleEntry) {
	slog.Info("Executing scheduled content run",
		logfields.ScheduleName(entry.Name),
		slog.Int("keywords", len(entry.Keywords)))

	for _, req := range entry.Requests() {
		if ctx.Err() != nil {
			return
		}
		res, err := c.runner.Run(ctx, req)
		if err != nil {
			slog.Error("Scheduled run failed",
				logfields.ScheduleName(entry.Name),
				logfields.Keyword(req.SubjectKeyword),
				logfields.Error(err))
			continue
		}
		slog.Info("Scheduled run finished",
			logfields.ScheduleName(entry.Name),
			logfields.Keyword(req.SubjectKeyword),
			logfields.RunID(res.RunID),
			logfields.Status(string(res.Status)),
			logfields.Progress(res.Progress))
	}
}
