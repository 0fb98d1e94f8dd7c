package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
	"git.home.luguber.info/inful/articleforge/internal/store"
)

func request() models.Request {
	return models.Request{SubjectKeyword: "espresso machines", TenantID: "tenant-1", CallerID: "caller-1"}
}

func ok(note string) models.Stage {
	return func(_ context.Context, _ *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
		return data.WithNote(note), nil
	}
}

func failing(msg string) models.Stage {
	return func(_ context.Context, _ *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
		data.Notes = append(data.Notes, "leaked")
		return data, errors.New(msg)
	}
}

func draft(title string) models.Stage {
	return func(_ context.Context, _ *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
		data.Draft = &models.Draft{Title: title, Slug: "espresso-machines", Content: "# " + title + "\n\nBody."}
		return data, nil
	}
}

func stage(id models.StageID, fn models.Stage, deps ...models.StageID) models.StageDescriptor {
	return models.StageDescriptor{ID: id, Name: string(id), Execute: fn, DependsOn: deps}
}

func statuses(res *models.RunResult) map[models.StageID]models.StageStatus {
	out := map[models.StageID]models.StageStatus{}
	for _, s := range res.Stages {
		out[s.StageID] = s.Status
	}
	return out
}

func ids(res *models.RunResult) []models.StageID {
	out := make([]models.StageID, 0, len(res.Stages))
	for _, s := range res.Stages {
		out = append(out, s.StageID)
	}
	return out
}

func TestNewRejectsEmptyRegistry(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidRegistry)
}

func TestRunPreservesRegistryOrder(t *testing.T) {
	reg := models.NewRegistryBuilder().
		Add(stage("c", ok("c"))).
		Add(stage("a", failing("boom"))).
		Add(stage("b", ok("b"), "a")).
		Add(models.StageDescriptor{ID: "d", Execute: ok("d"), SkipIf: func(*models.ExecutionContext, models.PipelineData) bool { return true }}).
		Add(stage("e", ok("e"))).
		MustBuild()
	o, err := New(reg, nil)
	require.NoError(t, err)

	res, err := o.Run(t.Context(), request())
	require.NoError(t, err)
	assert.Equal(t, []models.StageID{"c", "a", "b", "d", "e"}, ids(res))
	assert.Equal(t, []string{"c", "e"}, res.Notes)
}

func TestRunDependencyFailureSkipsDependents(t *testing.T) {
	reg := models.NewRegistryBuilder().
		Add(stage("a", failing("provider down"))).
		Add(stage("b", ok("b"), "a")).
		Add(stage("c", ok("c"), "b")).
		Add(stage("d", ok("d"))).
		MustBuild()
	o, err := New(reg, nil)
	require.NoError(t, err)

	res, err := o.Run(t.Context(), request())
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, res.Status)
	assert.Equal(t, map[models.StageID]models.StageStatus{
		"a": models.StageFailed,
		"b": models.StageSkipped,
		"c": models.StageSkipped,
		"d": models.StageCompleted,
	}, statuses(res))

	b, _ := res.StageResult("b")
	assert.Equal(t, models.SkipDependencyNotMet, b.SkipReason)
	a, _ := res.StageResult("a")
	assert.Contains(t, a.Error, "provider down")
	assert.Equal(t, models.StageErrorFailed, a.ErrorKind)
	assert.Equal(t, 25, res.Progress)
}

func TestRunFailuresDoNotAbort(t *testing.T) {
	reg := models.NewRegistryBuilder().
		Add(stage("explodes", func(context.Context, *models.ExecutionContext, models.PipelineData) (models.PipelineData, error) {
			panic("nil map write")
		})).
		Add(stage("fails", failing("nope"))).
		Add(stage("works", ok("works"))).
		MustBuild()
	o, err := New(reg, nil)
	require.NoError(t, err)

	res, err := o.Run(t.Context(), request())
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, res.Status)

	explodes, _ := res.StageResult("explodes")
	assert.Equal(t, models.StageFailed, explodes.Status)
	assert.Equal(t, models.StageErrorPanic, explodes.ErrorKind)
	assert.Contains(t, explodes.Error, "nil map write")

	works, _ := res.StageResult("works")
	assert.Equal(t, models.StageCompleted, works.Status)
	assert.Equal(t, []string{"works"}, res.Notes, "failed stages must not leak data")
}

func TestRunResolvesOptionsBeforeStages(t *testing.T) {
	var seen []models.PipelineOptions
	capture := func(_ context.Context, ec *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
		seen = append(seen, ec.Options)
		return data, nil
	}
	reg := models.NewRegistryBuilder().Add(stage("capture", capture)).MustBuild()
	o, err := New(reg, nil)
	require.NoError(t, err)

	req := request()
	req.Options = &models.PartialOptions{}
	_, err = o.Run(t.Context(), req)
	require.NoError(t, err)

	tone := "casual"
	req.Options = &models.PartialOptions{Tone: &tone}
	_, err = o.Run(t.Context(), req)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, models.DefaultOptions(), seen[0])
	want := models.DefaultOptions()
	want.Tone = models.ToneCasual
	assert.Equal(t, want, seen[1])
}

func TestRunLayersOrchestratorDefaults(t *testing.T) {
	var got models.PipelineOptions
	capture := func(_ context.Context, ec *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
		got = ec.Options
		return data, nil
	}
	reg := models.NewRegistryBuilder().Add(stage("capture", capture)).MustBuild()
	sections, words := 9, 800
	o, err := New(reg, nil, WithDefaults(&models.PartialOptions{OutlineSections: &sections, TargetWordCount: &words}))
	require.NoError(t, err)

	req := request()
	override := 4
	req.Options = &models.PartialOptions{OutlineSections: &override}
	_, err = o.Run(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, 4, got.OutlineSections)
	assert.Equal(t, 800, got.TargetWordCount)
}

func TestRunReportIsDeterministic(t *testing.T) {
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { clock = clock.Add(time.Millisecond); return clock }
	reg := models.NewRegistryBuilder().
		Add(stage("draft", draft("Espresso Machines"))).
		Add(stage("fails", failing("x"), "draft")).
		MustBuild()
	o, err := New(reg, nil, WithClock(now), WithIDGenerator(func() string { return "run-fixed" }))
	require.NoError(t, err)

	res, err := o.Run(t.Context(), request())
	require.NoError(t, err)
	first, err := res.JSON()
	require.NoError(t, err)
	second, err := res.JSON()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	meta := models.ReportMeta{RunID: res.RunID, StartedAt: res.StartedAt, CompletedAt: res.CompletedAt}
	data := models.PipelineData{Draft: &models.Draft{Title: "Espresso Machines"}}
	a := models.BuildRunResult(meta, data, res.Stages, res.Status)
	b := models.BuildRunResult(meta, data, res.Stages, res.Status)
	aj, err := a.JSON()
	require.NoError(t, err)
	bj, err := b.JSON()
	require.NoError(t, err)
	assert.Equal(t, aj, bj)
	assert.Equal(t, "run-fixed", res.RunID)
}

func TestRunMaterializesOnce(t *testing.T) {
	st := store.NewMemoryStore()
	var refs []string
	ref := func(_ context.Context, _ *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
		refs = append(refs, data.EntityID)
		return data, nil
	}
	reg := models.NewRegistryBuilder().
		Add(stage("draft", draft("Espresso Machines"))).
		Add(stage("redraft", draft("Espresso Machines Revised"), "draft")).
		Add(stage("link", ref, "draft")).
		Add(stage("final", ref, "draft")).
		MustBuild()
	o, err := New(reg, st)
	require.NoError(t, err)

	res, err := o.Run(t.Context(), request())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Creates())
	require.Len(t, refs, 2)
	assert.NotEmpty(t, refs[0])
	assert.Equal(t, refs[0], refs[1])
	assert.Equal(t, refs[0], res.Result.EntityID)

	got, err := st.GetArticle(t.Context(), "tenant-1", refs[0])
	require.NoError(t, err)
	assert.Equal(t, store.StatusDraft, got.Status)
	assert.Equal(t, "Espresso Machines", got.Title)
}

func TestRunSkipsMaterializeWhenIntermediateResultsDisabled(t *testing.T) {
	st := store.NewMemoryStore()
	reg := models.NewRegistryBuilder().Add(stage("draft", draft("Espresso Machines"))).MustBuild()
	o, err := New(reg, st)
	require.NoError(t, err)

	req := request()
	off := false
	req.Options = &models.PartialOptions{SaveIntermediateResults: &off}
	res, err := o.Run(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Creates())
	assert.Empty(t, res.Result.EntityID)
}

type flakyStore struct {
	*store.MemoryStore
	calls atomic.Int32
}

func (f *flakyStore) CreateArticle(ctx context.Context, a store.Article) (store.Article, error) {
	if f.calls.Add(1) == 1 {
		return store.Article{}, ferrors.StoreError("database is locked").Build()
	}
	return f.MemoryStore.CreateArticle(ctx, a)
}

func TestRunMaterializeFailureIsNotRetried(t *testing.T) {
	st := &flakyStore{MemoryStore: store.NewMemoryStore()}
	var materialized []error
	rec := &recordingObserver{onMaterialize: func(_ string, err error) { materialized = append(materialized, err) }}

	reg := models.NewRegistryBuilder().
		Add(stage("draft", draft("Espresso Machines"))).
		Add(stage("more", ok("more"), "draft")).
		MustBuild()
	o, err := New(reg, st, WithObserver(rec))
	require.NoError(t, err)

	res, err := o.Run(t.Context(), request())
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, res.Status)
	assert.Equal(t, int32(1), st.calls.Load())
	assert.Empty(t, res.Result.EntityID)
	require.Len(t, materialized, 1)
	assert.Error(t, materialized[0])
	require.NotEmpty(t, res.Notes)
	assert.Contains(t, res.Notes[0], "database is locked")
}

func TestRunStageTimeout(t *testing.T) {
	slow := func(ctx context.Context, _ *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
		<-ctx.Done()
		return data, ctx.Err()
	}
	reg := models.NewRegistryBuilder().
		Add(stage("slow", slow)).
		Add(stage("after", ok("after"))).
		MustBuild()
	o, err := New(reg, nil, WithStageTimeout(10*time.Millisecond))
	require.NoError(t, err)

	res, err := o.Run(t.Context(), request())
	require.NoError(t, err)
	slowRes, _ := res.StageResult("slow")
	assert.Equal(t, models.StageFailed, slowRes.Status)
	assert.Equal(t, models.StageErrorTimeout, slowRes.ErrorKind)
	assert.True(t, slowRes.Transient)
	assert.Equal(t, models.StageCompleted, statuses(res)["after"])
}

func TestRunStageTimeoutIgnoredByBody(t *testing.T) {
	sleepy := func(_ context.Context, _ *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
		time.Sleep(60 * time.Millisecond)
		return data.WithNote("slow ran"), nil
	}
	reg := models.NewRegistryBuilder().
		Add(stage("slow", sleepy)).
		Add(stage("after", ok("after"), "slow")).
		MustBuild()
	o, err := New(reg, nil, WithStageTimeout(10*time.Millisecond))
	require.NoError(t, err)

	res, err := o.Run(t.Context(), request())
	require.NoError(t, err)
	slowRes, _ := res.StageResult("slow")
	assert.Equal(t, models.StageFailed, slowRes.Status)
	assert.Equal(t, models.StageErrorTimeout, slowRes.ErrorKind)
	assert.NotContains(t, res.Notes, "slow ran")

	after, _ := res.StageResult("after")
	assert.Equal(t, models.StageSkipped, after.Status)
	assert.Equal(t, models.SkipDependencyNotMet, after.SkipReason)
}

func TestRunCanceledContextVisitsEveryStage(t *testing.T) {
	var executed atomic.Int32
	count := func(_ context.Context, _ *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
		executed.Add(1)
		return data, nil
	}
	reg := models.NewRegistryBuilder().
		Add(stage("a", count)).
		Add(stage("b", count, "a")).
		Add(stage("c", count)).
		MustBuild()
	o, err := New(reg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	res, err := o.Run(ctx, request())
	require.NoError(t, err)

	assert.Equal(t, []models.StageID{"a", "b", "c"}, ids(res))
	assert.Equal(t, int32(0), executed.Load())
	a, _ := res.StageResult("a")
	assert.Equal(t, models.StageErrorCanceled, a.ErrorKind)
	assert.Equal(t, models.StageSkipped, statuses(res)["b"])
	assert.Equal(t, models.StageFailed, statuses(res)["c"])
}

func TestRunInvalidRequest(t *testing.T) {
	reg := models.NewRegistryBuilder().Add(stage("a", ok("a"))).Add(stage("b", ok("b"))).MustBuild()
	rec := &recordingObserver{}
	o, err := New(reg, nil, WithObserver(rec))
	require.NoError(t, err)

	res, err := o.Run(t.Context(), models.Request{TenantID: "tenant-1"})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	require.NotNil(t, res)
	assert.Equal(t, models.RunFailed, res.Status)
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, []models.StageID{"a", "b"}, ids(res))
	for _, s := range res.Stages {
		assert.Equal(t, models.SkipRunAborted, s.SkipReason)
	}
	assert.Equal(t, 1, rec.completed)
	assert.Equal(t, 0, rec.started)
}

func TestRunObserverPanicFailsRun(t *testing.T) {
	reg := models.NewRegistryBuilder().
		Add(stage("a", ok("a"))).
		Add(stage("b", ok("b"))).
		Add(stage("c", ok("c"))).
		MustBuild()
	rec := &recordingObserver{onStageComplete: func(r models.StageResult) {
		if r.StageID == "b" {
			panic("observer bug")
		}
	}}
	o, err := New(reg, nil, WithObserver(rec))
	require.NoError(t, err)

	res, err := o.Run(t.Context(), request())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryPipeline))
	assert.Equal(t, models.RunFailed, res.Status)
	assert.Equal(t, []models.StageID{"a", "b", "c"}, ids(res))
	got := statuses(res)
	assert.Equal(t, models.StageCompleted, got["a"])
	// b ran before the observer blew up, so its outcome is kept.
	assert.Equal(t, models.StageCompleted, got["b"])
	assert.Contains(t, res.Notes, "b")
	c, _ := res.StageResult("c")
	assert.Equal(t, models.StageSkipped, c.Status)
	assert.Equal(t, models.SkipRunAborted, c.SkipReason)
	assert.Equal(t, 1, rec.completed)
}

func TestRunConcurrentRunsAreIsolated(t *testing.T) {
	st := store.NewMemoryStore()
	reg := models.NewRegistryBuilder().Add(stage("draft", draft("Espresso Machines"))).MustBuild()
	o, err := New(reg, st)
	require.NoError(t, err)

	const runs = 8
	results := make(chan *models.RunResult, runs)
	for i := range runs {
		go func() {
			req := request()
			req.CallerID = fmt.Sprintf("caller-%d", i)
			res, err := o.Run(context.Background(), req)
			assert.NoError(t, err)
			results <- res
		}()
	}
	seen := map[string]bool{}
	for range runs {
		res := <-results
		assert.False(t, seen[res.Result.EntityID])
		seen[res.Result.EntityID] = true
	}
	assert.Equal(t, runs, st.Creates())
}

type recordingObserver struct {
	models.NoopObserver
	started         int
	completed       int
	onStageComplete func(models.StageResult)
	onMaterialize   func(string, error)
}

func (r *recordingObserver) OnRunStart(*models.ExecutionContext) { r.started++ }

func (r *recordingObserver) OnStageComplete(_ *models.ExecutionContext, res models.StageResult) {
	if r.onStageComplete != nil {
		r.onStageComplete(res)
	}
}

func (r *recordingObserver) OnMaterialize(_ *models.ExecutionContext, id string, err error) {
	if r.onMaterialize != nil {
		r.onMaterialize(id, err)
	}
}

func (r *recordingObserver) OnRunComplete(*models.ExecutionContext, *models.RunResult) {
	r.completed++
}
