package models

import (
	"time"

	"git.home.luguber.info/inful/articleforge/internal/metrics"
)

// RunObserver receives callbacks around stage execution and the run lifecycle.
// OnRunComplete may receive a nil ExecutionContext when the run failed before
// its context could be built. Observers must not modify their arguments.
type RunObserver interface {
	OnRunStart(ec *ExecutionContext)
	OnStageStart(ec *ExecutionContext, stage StageID)
	OnStageComplete(ec *ExecutionContext, result StageResult)
	OnMaterialize(ec *ExecutionContext, entityID string, err error)
	OnRunComplete(ec *ExecutionContext, result *RunResult)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(_ *ExecutionContext)                       {}
func (NoopObserver) OnStageStart(_ *ExecutionContext, _ StageID)          {}
func (NoopObserver) OnStageComplete(_ *ExecutionContext, _ StageResult)   {}
func (NoopObserver) OnMaterialize(_ *ExecutionContext, _ string, _ error) {}
func (NoopObserver) OnRunComplete(_ *ExecutionContext, _ *RunResult)      {}

// MultiObserver fans every callback out to each observer in order.
type MultiObserver []RunObserver

func (m MultiObserver) OnRunStart(ec *ExecutionContext) {
	for _, o := range m {
		o.OnRunStart(ec)
	}
}

func (m MultiObserver) OnStageStart(ec *ExecutionContext, stage StageID) {
	for _, o := range m {
		o.OnStageStart(ec, stage)
	}
}

func (m MultiObserver) OnStageComplete(ec *ExecutionContext, result StageResult) {
	for _, o := range m {
		o.OnStageComplete(ec, result)
	}
}

func (m MultiObserver) OnMaterialize(ec *ExecutionContext, entityID string, err error) {
	for _, o := range m {
		o.OnMaterialize(ec, entityID, err)
	}
}

func (m MultiObserver) OnRunComplete(ec *ExecutionContext, result *RunResult) {
	for _, o := range m {
		o.OnRunComplete(ec, result)
	}
}

// RecorderObserver adapts metrics.Recorder into a RunObserver.
type RecorderObserver struct{ Recorder metrics.Recorder }

func (r RecorderObserver) OnRunStart(_ *ExecutionContext)              {}
func (r RecorderObserver) OnStageStart(_ *ExecutionContext, _ StageID) {}

func (r RecorderObserver) OnStageComplete(_ *ExecutionContext, result StageResult) {
	if r.Recorder == nil {
		return
	}
	if result.Status != StageSkipped {
		r.Recorder.ObserveStageDuration(string(result.StageID), result.Duration())
	}
	r.Recorder.IncStageResult(string(result.StageID), metrics.StageResultLabel(result.Status))
}

func (r RecorderObserver) OnMaterialize(_ *ExecutionContext, _ string, err error) {
	if r.Recorder == nil {
		return
	}
	if err != nil {
		r.Recorder.IncMaterialization(metrics.MaterializeFailed)
		return
	}
	r.Recorder.IncMaterialization(metrics.MaterializeCreated)
}

func (r RecorderObserver) OnRunComplete(_ *ExecutionContext, result *RunResult) {
	if r.Recorder == nil || result == nil {
		return
	}
	r.Recorder.ObserveRunDuration(time.Duration(result.DurationMS) * time.Millisecond)
	r.Recorder.IncRunOutcome(metrics.RunOutcomeLabel(result.Status))
	if result.Result != nil && result.Result.SEOScore != nil {
		r.Recorder.ObserveSEOScore(*result.Result.SEOScore)
	}
}
