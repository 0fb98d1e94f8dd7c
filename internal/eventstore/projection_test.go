package eventstore

import (
	"errors"
	"testing"
	"time"

	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

func testContext(runID string, started time.Time) *models.ExecutionContext {
	return &models.ExecutionContext{
		RunID:     runID,
		StartedAt: started,
		TenantID:  "tenant-1",
		CallerID:  "user-1",
		Keyword:   "espresso machines",
		Options:   models.DefaultOptions(),
	}
}

func testRunResult(runID string, started time.Time, stages []models.StageResult) *models.RunResult {
	score := 72
	res := models.BuildRunResult(models.ReportMeta{
		RunID:       runID,
		StartedAt:   started,
		CompletedAt: started.Add(3 * time.Second),
	}, models.PipelineData{
		EntityID: "article-1",
		Draft:    &models.Draft{Title: "Espresso Machines", Slug: "espresso-machines", Content: "# Espresso"},
		SEO:      &models.SEOAnalysis{Score: score},
	}, stages, models.RunCompleted)
	return &res
}

func TestRunHistoryProjection_ApplyEvents(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	projection := NewRunHistoryProjection(store, 10)
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ec := testContext("run-1", started)

	ev, err := NewRunStarted(ec)
	if err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	projection.Apply(ev)

	summary, exists := projection.GetRun("run-1")
	if !exists {
		t.Fatal("Expected run to exist")
	}
	if summary.Status != "running" {
		t.Errorf("Expected status 'running', got %q", summary.Status)
	}
	if summary.TenantID != "tenant-1" || summary.Keyword != "espresso machines" {
		t.Errorf("Unexpected identity: %+v", summary)
	}
	if len(projection.GetActiveRuns()) != 1 {
		t.Errorf("Expected 1 active run")
	}

	end := started.Add(time.Second)
	stages := []models.StageResult{
		models.NewCompletedResult(models.StageDraftGeneration, started, end),
		models.NewFailedResult(models.StageImageGeneration, started, end, errors.New("provider down")),
		models.NewSkippedResult(models.StageInternalLinking, end, models.SkipByPredicate),
	}
	for _, st := range stages {
		ev, err := NewStageEvent("run-1", st)
		if err != nil {
			t.Fatalf("Failed to create stage event: %v", err)
		}
		projection.Apply(ev)
	}

	ev, err = NewArticleMaterialized("run-1", end, "article-1", nil)
	if err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	projection.Apply(ev)

	ev, err = NewRunCompleted(testRunResult("run-1", started, stages))
	if err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	projection.Apply(ev)

	summary, _ = projection.GetRun("run-1")
	if summary.Status != "completed" {
		t.Errorf("Expected status 'completed', got %q", summary.Status)
	}
	if summary.Completed != 1 || summary.Failed != 1 || summary.Skipped != 1 {
		t.Errorf("Unexpected stage counts: %+v", summary)
	}
	if len(summary.FailedStages) != 1 || summary.FailedStages[0] != string(models.StageImageGeneration) {
		t.Errorf("Unexpected failed stages: %v", summary.FailedStages)
	}
	if summary.EntityID != "article-1" {
		t.Errorf("Expected entity 'article-1', got %q", summary.EntityID)
	}
	if summary.SEOScore == nil || *summary.SEOScore != 72 {
		t.Errorf("Expected SEO score 72, got %v", summary.SEOScore)
	}
	if summary.Duration != 3*time.Second {
		t.Errorf("Expected duration 3s, got %v", summary.Duration)
	}

	history := projection.GetHistory()
	if len(history) != 1 || history[0].RunID != "run-1" {
		t.Fatalf("Expected run-1 in history, got %+v", history)
	}
	if len(projection.GetActiveRuns()) != 0 {
		t.Errorf("Expected no active runs")
	}
}

func TestRunHistoryProjection_RebuildViaObserver(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	live := NewRunHistoryProjection(store, 10)
	obs := NewObserver(store, live)

	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	for i, id := range []string{"run-a", "run-b"} {
		started := base.Add(time.Duration(i) * time.Minute)
		ec := testContext(id, started)
		obs.OnRunStart(ec)
		st := models.NewCompletedResult(models.StageSERPAnalysis, started, started.Add(time.Second))
		obs.OnStageComplete(ec, st)
		obs.OnMaterialize(ec, "article-"+id, nil)
		obs.OnRunComplete(ec, testRunResult(id, started, []models.StageResult{st}))
	}

	events, err := store.GetByRunID(t.Context(), "run-a")
	if err != nil {
		t.Fatalf("GetByRunID: %v", err)
	}
	wantTypes := []string{TypeRunStarted, TypeStageCompleted, TypeArticleMaterialized, TypeRunCompleted}
	if len(events) != len(wantTypes) {
		t.Fatalf("Expected %d events, got %d", len(wantTypes), len(events))
	}
	for i, ev := range events {
		if ev.Type() != wantTypes[i] {
			t.Errorf("event %d: expected %s, got %s", i, wantTypes[i], ev.Type())
		}
	}

	rebuilt := NewRunHistoryProjection(store, 1)
	if err := rebuilt.Rebuild(t.Context()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	history := rebuilt.GetHistory()
	if len(history) != 1 {
		t.Fatalf("Expected history bounded to 1, got %d", len(history))
	}
	if history[0].RunID != "run-b" {
		t.Errorf("Expected newest run-b, got %s", history[0].RunID)
	}
	if _, ok := rebuilt.GetRun("run-a"); ok {
		t.Errorf("Expected run-a to be pruned")
	}
	if rebuilt.LastSyncTime().IsZero() {
		t.Errorf("Expected last sync time to be set")
	}
	if len(live.GetHistory()) != 2 {
		t.Errorf("Expected live projection to hold both runs")
	}
}
