package metrics

import "time"

// StageResultLabel enumerates stage result categories for counters.
type StageResultLabel string

const (
	StageCompleted StageResultLabel = "completed"
	StageFailed    StageResultLabel = "failed"
	StageSkipped   StageResultLabel = "skipped"
)

// RunOutcomeLabel enumerates final run states.
type RunOutcomeLabel string

const (
	RunCompleted RunOutcomeLabel = "completed"
	RunFailed    RunOutcomeLabel = "failed"
)

// MaterializeLabel enumerates materialization outcomes.
type MaterializeLabel string

const (
	MaterializeCreated MaterializeLabel = "created"
	MaterializeFailed  MaterializeLabel = "failed"
)

// Recorder defines observability hooks for run and stage metrics.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result StageResultLabel)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome RunOutcomeLabel)
	IncMaterialization(result MaterializeLabel)
	ObserveSEOScore(score int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, StageResultLabel)    {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncRunOutcome(RunOutcomeLabel)              {}
func (NoopRecorder) IncMaterialization(MaterializeLabel)        {}
func (NoopRecorder) ObserveSEOScore(int)                        {}
