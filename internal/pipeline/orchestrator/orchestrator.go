// Package orchestrator runs a stage registry against one request and produces
// the run report.
//
// Stages run strictly in registry order. A stage failure never aborts the
// run: the failure is recorded and stages depending on it are skipped. The
// first persistable draft is materialized exactly once so later stages can
// reference a durable entity id.
package orchestrator

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/logfields"
	"git.home.luguber.info/inful/articleforge/internal/metrics"
	"git.home.luguber.info/inful/articleforge/internal/observability"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
	"git.home.luguber.info/inful/articleforge/internal/store"
)

// Materializer creates the article for a run's first persistable draft.
type Materializer interface {
	CreateArticle(ctx context.Context, a store.Article) (store.Article, error)
}

// Orchestrator executes a registry. It holds no per-run state and is safe for
// concurrent Run calls.
type Orchestrator struct {
	registry     *models.Registry
	store        Materializer
	observers    models.MultiObserver
	stageTimeout time.Duration
	defaults     *models.PartialOptions
	now          func() time.Time
	newID        func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver adds run observers. They are called synchronously in order.
func WithObserver(obs ...models.RunObserver) Option {
	return func(o *Orchestrator) {
		for _, ob := range obs {
			if ob != nil {
				o.observers = append(o.observers, ob)
			}
		}
	}
}

// WithRecorder reports stage and run metrics to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.observers = append(o.observers, models.RecorderObserver{Recorder: r})
		}
	}
}

// WithStageTimeout bounds each stage execution. Zero disables the bound.
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.stageTimeout = d }
}

// WithDefaults layers options between the built-in defaults and the request's own options.
func WithDefaults(p *models.PartialOptions) Option {
	return func(o *Orchestrator) { o.defaults = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

// New creates an orchestrator for reg. A nil store disables materialization.
func New(reg *models.Registry, st Materializer, opts ...Option) (*Orchestrator, error) {
	if reg == nil || reg.Len() == 0 {
		return nil, ferrors.ConfigError("orchestrator requires a non-empty stage registry").
			WithCause(models.ErrInvalidRegistry).
			Build()
	}
	o := &Orchestrator{
		registry: reg,
		store:    st,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// runState is the per-run bookkeeping threaded through the loop.
type runState struct {
	runID        string
	ec           *models.ExecutionContext
	data         models.PipelineData
	results      []models.StageResult
	materialized bool
}

// Run executes every registry entry for req and returns the run report.
//
// The returned error is non-nil only for orchestration-level failures (an
// invalid request or a panic outside a stage body). A report is returned in
// every case and always holds one StageResult per registry entry.
func (o *Orchestrator) Run(ctx context.Context, req models.Request) (*models.RunResult, error) {
	runID := o.newID()
	startedAt := o.now()
	ctx = observability.WithRun(ctx, runID, req.TenantID, req.CallerID, req.SubjectKeyword)

	ec, err := models.NewExecutionContext(req, runID, startedAt, o.defaults)
	if err != nil {
		observability.WarnContext(ctx, "Pipeline request rejected", logfields.Error(err))
		st := &runState{runID: runID}
		return o.finish(ctx, st, startedAt, models.RunFailed, err), err
	}

	st := &runState{runID: runID, ec: ec, results: make([]models.StageResult, 0, o.registry.Len())}
	status := models.RunCompleted
	if err := o.loop(ctx, st); err != nil {
		status = models.RunFailed
		observability.ErrorContext(ctx, "Pipeline run aborted", logfields.Error(err))
		return o.finish(ctx, st, startedAt, status, err), err
	}
	return o.finish(ctx, st, startedAt, status, nil), nil
}

// loop visits every stage. Panics raised outside stage bodies are converted
// into an orchestration error.
func (o *Orchestrator) loop(ctx context.Context, st *runState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ferrors.PipelineError("orchestration panicked").
				WithContext("panic", fmt.Sprint(r)).
				WithContext("stage_index", len(st.results)).
				Build()
		}
	}()

	o.observers.OnRunStart(st.ec)
	observability.InfoContext(ctx, "Pipeline run started", logfields.Progress(0))

	for _, def := range o.registry.Stages() {
		res := o.runStage(ctx, st, def)
		st.results = append(st.results, res)
		o.observers.OnStageComplete(st.ec, res)

		if !st.materialized && o.shouldMaterialize(st) {
			st.materialized = true
			st.data = o.materialize(ctx, st.ec, st.data)
		}
	}
	return nil
}

func (o *Orchestrator) runStage(ctx context.Context, st *runState, def models.StageDescriptor) models.StageResult {
	stageCtx := observability.WithStage(ctx, string(def.ID))

	var res models.StageResult
	switch {
	case def.ShouldSkip(st.ec, st.data):
		res = models.NewSkippedResult(def.ID, o.now(), models.SkipByPredicate)
		observability.DebugContext(stageCtx, "Stage skipped by predicate")
	case !dependenciesMet(def, st.results):
		res = models.NewSkippedResult(def.ID, o.now(), models.SkipDependencyNotMet)
		observability.InfoContext(stageCtx, "Stage skipped: dependency not completed")
	case ctx.Err() != nil:
		at := o.now()
		res = models.NewFailedResult(def.ID, at, at, models.NewStageError(def.ID, ctx.Err()))
		observability.WarnContext(stageCtx, "Stage not started: run canceled", logfields.Error(ctx.Err()))
	default:
		o.observers.OnStageStart(st.ec, def.ID)
		start := o.now()
		out, err := o.execute(stageCtx, st.ec, def, st.data.Clone())
		end := o.now()
		if err != nil {
			res = models.NewFailedResult(def.ID, start, end, err)
			observability.WarnContext(stageCtx, "Stage failed",
				logfields.DurationMS(end.Sub(start).Milliseconds()),
				logfields.Error(err))
		} else {
			st.data = out
			res = models.NewCompletedResult(def.ID, start, end)
			observability.InfoContext(stageCtx, "Stage completed",
				logfields.DurationMS(end.Sub(start).Milliseconds()))
		}
	}
	return res
}

// execute calls the stage body on a private copy of the data. On failure the
// copy is discarded by the caller.
func (o *Orchestrator) execute(ctx context.Context, ec *models.ExecutionContext, def models.StageDescriptor, data models.PipelineData) (out models.PipelineData, err error) {
	if o.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.stageTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = data, models.NewPanicStageError(def.ID, r)
		}
	}()

	out, err = def.Execute(ctx, ec, data)
	if err == nil && o.stageTimeout > 0 && stdErrors.Is(ctx.Err(), context.DeadlineExceeded) {
		// The body ignored the deadline; its output is not trusted.
		return data, models.NewStageError(def.ID, context.DeadlineExceeded)
	}
	if err != nil {
		var se *models.StageError
		if stdErrors.As(err, &se) {
			return data, err
		}
		return data, models.NewStageError(def.ID, err)
	}
	return out, nil
}

func dependenciesMet(def models.StageDescriptor, prior []models.StageResult) bool {
	for _, dep := range def.DependsOn {
		met := false
		for _, r := range prior {
			if r.StageID == dep {
				met = r.Status == models.StageCompleted
				break
			}
		}
		if !met {
			return false
		}
	}
	return true
}

func (o *Orchestrator) shouldMaterialize(st *runState) bool {
	return o.store != nil &&
		st.ec.Options.SaveIntermediateResults &&
		st.data.EntityID == "" &&
		st.data.Draft.Persistable()
}

// materialize creates the draft article. Failure is recorded as a run note and
// leaves the entity id empty so finalization creates the article instead.
func (o *Orchestrator) materialize(ctx context.Context, ec *models.ExecutionContext, data models.PipelineData) models.PipelineData {
	created, err := o.store.CreateArticle(ctx, store.FromPipeline(ec, data, store.StatusDraft))
	o.observers.OnMaterialize(ec, created.ID, err)
	if err != nil {
		observability.WarnContext(ctx, "Article materialization failed", logfields.Error(err))
		return data.WithNote("materialize: " + err.Error())
	}

	data.EntityID = created.ID
	if created.Slug != "" && created.Slug != data.Draft.Slug {
		draft := *data.Draft
		draft.Slug = created.Slug
		data.Draft = &draft
	}
	observability.InfoContext(ctx, "Article materialized", logfields.EntityID(created.ID))
	return data
}

// finish pads the stage list to the registry length, builds the report and
// notifies observers.
func (o *Orchestrator) finish(ctx context.Context, st *runState, startedAt time.Time, status models.RunStatus, runErr error) *models.RunResult {
	stages := o.registry.Stages()
	for i := len(st.results); i < len(stages); i++ {
		st.results = append(st.results, models.NewSkippedResult(stages[i].ID, o.now(), models.SkipRunAborted))
	}

	meta := models.ReportMeta{RunID: st.runID, StartedAt: startedAt, CompletedAt: o.now()}
	if runErr != nil {
		meta.RunError = runErr.Error()
	}
	res := models.BuildRunResult(meta, st.data, st.results, status)

	o.notifyComplete(ctx, st.ec, &res)
	observability.InfoContext(ctx, "Pipeline run finished",
		logfields.Status(string(res.Status)),
		logfields.Progress(res.Progress),
		logfields.DurationMS(res.DurationMS))
	return &res
}

func (o *Orchestrator) notifyComplete(ctx context.Context, ec *models.ExecutionContext, res *models.RunResult) {
	defer func() {
		if r := recover(); r != nil {
			observability.ErrorContext(ctx, "Run observer panicked", logfields.Error(fmt.Errorf("%v", r)))
		}
	}()
	o.observers.OnRunComplete(ec, res)
}
