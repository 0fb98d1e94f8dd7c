package models

import (
	"context"
	stdErrors "errors"
	"fmt"

	"git.home.luguber.info/inful/articleforge/internal/foundation/errors"
)

// Stage is a discrete unit of work in the article pipeline. It receives the
// accumulated data by value and returns the updated copy.
type Stage func(ctx context.Context, ec *ExecutionContext, data PipelineData) (PipelineData, error)

// SkipPredicate decides whether a stage is bypassed for this run.
type SkipPredicate func(ec *ExecutionContext, data PipelineData) bool

// StageID is a strongly-typed identifier for a pipeline stage.
type StageID string

// Canonical stage identifiers, in default registry order.
const (
	StageSERPAnalysis      StageID = "serp_analysis"
	StageOutlineGeneration StageID = "outline_generation"
	StageDraftGeneration   StageID = "draft_generation"
	StageInternalLinking   StageID = "internal_linking"
	StageExternalLinking   StageID = "external_linking"
	StageImageGeneration   StageID = "image_generation"
	StageSEOScoring        StageID = "seo_scoring"
	StageFinalization      StageID = "finalization"
)

// StageDescriptor is the static definition of one registry entry.
type StageDescriptor struct {
	ID          StageID
	Name        string
	Description string
	Execute     Stage
	DependsOn   []StageID
	SkipIf      SkipPredicate
}

// ShouldSkip evaluates the skip predicate; a nil predicate never skips.
func (d StageDescriptor) ShouldSkip(ec *ExecutionContext, data PipelineData) bool {
	if d.SkipIf == nil {
		return false
	}
	return d.SkipIf(ec, data)
}

// StageStatus is the recorded outcome of one registry entry.
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// SkipReason records why a stage did not run.
type SkipReason string

const (
	SkipByPredicate      SkipReason = "skip_predicate"
	SkipDependencyNotMet SkipReason = "dependency_not_met"
	SkipRunAborted       SkipReason = "run_aborted"
)

// StageErrorKind classifies why a stage failed.
type StageErrorKind string

const (
	StageErrorFailed   StageErrorKind = "failed"   // Returned error.
	StageErrorTimeout  StageErrorKind = "timeout"  // Per-stage deadline exceeded.
	StageErrorCanceled StageErrorKind = "canceled" // Parent context canceled.
	StageErrorPanic    StageErrorKind = "panic"    // Recovered panic.
)

// StageError is a structured error carrying the failing stage and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageID
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s %s: %v", e.Stage, e.Kind, e.Err)
}
func (e *StageError) Unwrap() error { return e.Err }

// Transient reports whether the underlying error condition is likely transient.
func (e *StageError) Transient() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case StageErrorCanceled, StageErrorPanic:
		return false
	case StageErrorTimeout:
		return true
	case StageErrorFailed:
	}
	var transient interface{ IsTransient() bool }
	if stdErrors.As(e.Err, &transient) && transient.IsTransient() {
		return true
	}
	if ce, ok := errors.AsClassified(e.Err); ok && ce.RetryStrategy() != errors.RetryNever && ce.RetryStrategy() != errors.RetryUserAction {
		return true
	}
	return false
}

// NewStageError wraps err for stage, deriving the kind from context errors.
func NewStageError(stage StageID, err error) *StageError {
	kind := StageErrorFailed
	switch {
	case stdErrors.Is(err, context.DeadlineExceeded):
		kind = StageErrorTimeout
	case stdErrors.Is(err, context.Canceled):
		kind = StageErrorCanceled
	}
	return &StageError{Kind: kind, Stage: stage, Err: err}
}

// NewPanicStageError records a recovered panic value as a stage failure.
func NewPanicStageError(stage StageID, recovered any) *StageError {
	return &StageError{Kind: StageErrorPanic, Stage: stage, Err: fmt.Errorf("%w: %v", ErrStagePanic, recovered)}
}
