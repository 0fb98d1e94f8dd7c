package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/articleforge/internal/metrics"
)

type countingRecorder struct {
	metrics.NoopRecorder
	stageDurations []string
	stageResults   []metrics.StageResultLabel
	outcomes       []metrics.RunOutcomeLabel
	materialized   []metrics.MaterializeLabel
	scores         []int
}

func (c *countingRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	c.stageDurations = append(c.stageDurations, stage)
}

func (c *countingRecorder) IncStageResult(_ string, r metrics.StageResultLabel) {
	c.stageResults = append(c.stageResults, r)
}
func (c *countingRecorder) IncRunOutcome(o metrics.RunOutcomeLabel) {
	c.outcomes = append(c.outcomes, o)
}
func (c *countingRecorder) IncMaterialization(m metrics.MaterializeLabel) {
	c.materialized = append(c.materialized, m)
}
func (c *countingRecorder) ObserveSEOScore(s int) { c.scores = append(c.scores, s) }

func TestRecorderObserver(t *testing.T) {
	rec := &countingRecorder{}
	var obs RunObserver = MultiObserver{NoopObserver{}, RecorderObserver{Recorder: rec}}

	obs.OnRunStart(&ExecutionContext{})
	obs.OnStageComplete(nil, NewCompletedResult(StageDraftGeneration, t0, t0.Add(time.Second)))
	obs.OnStageComplete(nil, NewSkippedResult(StageInternalLinking, t0, SkipByPredicate))
	obs.OnMaterialize(nil, "a-1", nil)
	obs.OnMaterialize(nil, "", assert.AnError)

	score := 81
	obs.OnRunComplete(nil, &RunResult{Status: RunCompleted, Result: &ArticleResult{SEOScore: &score}})
	obs.OnRunComplete(nil, nil)

	assert.Equal(t, []string{"draft_generation"}, rec.stageDurations)
	assert.Equal(t, []metrics.StageResultLabel{metrics.StageCompleted, metrics.StageSkipped}, rec.stageResults)
	assert.Equal(t, []metrics.MaterializeLabel{metrics.MaterializeCreated, metrics.MaterializeFailed}, rec.materialized)
	assert.Equal(t, []metrics.RunOutcomeLabel{metrics.RunCompleted}, rec.outcomes)
	assert.Equal(t, []int{81}, rec.scores)
}

func TestRecorderObserverWithoutRecorder(t *testing.T) {
	assert.NotPanics(t, func() {
		obs := RecorderObserver{}
		obs.OnStageComplete(nil, NewCompletedResult(StageDraftGeneration, t0, t0))
		obs.OnMaterialize(nil, "", nil)
		obs.OnRunComplete(nil, &RunResult{})
	})
}
