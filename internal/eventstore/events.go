package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

// Event type names.
const (
	TypeRunStarted          = "RunStarted"
	TypeStageCompleted      = "StageCompleted"
	TypeStageFailed         = "StageFailed"
	TypeStageSkipped        = "StageSkipped"
	TypeArticleMaterialized = "ArticleMaterialized"
	TypeRunCompleted        = "RunCompleted"
)

// RunStartedPayload identifies the subject and scope of a run.
type RunStartedPayload struct {
	TenantID   string `json:"tenant_id"`
	CallerID   string `json:"caller_id"`
	Keyword    string `json:"keyword"`
	KeywordRef string `json:"keyword_ref,omitempty"`
	ProductRef string `json:"product_ref,omitempty"`
}

// StagePayload mirrors one StageResult.
type StagePayload struct {
	Stage      string `json:"stage"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	SkipReason string `json:"skip_reason,omitempty"`
}

// MaterializedPayload records the outcome of the first article create.
type MaterializedPayload struct {
	EntityID string `json:"entity_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RunCompletedPayload summarizes a finished run.
type RunCompletedPayload struct {
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	DurationMS int64  `json:"duration_ms"`
	EntityID   string `json:"entity_id,omitempty"`
	Title      string `json:"title,omitempty"`
	SEOScore   *int   `json:"seo_score,omitempty"`
	Error      string `json:"error,omitempty"`
	Completed  int    `json:"completed"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
}

func newEvent(runID, eventType string, at time.Time, payload any) (*BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal "+eventType+" payload").
			WithCause(err).
			WithContext("run_id", runID).
			Build()
	}
	return &BaseEvent{
		EventRunID:     runID,
		EventType:      eventType,
		EventTimestamp: at,
		EventPayload:   data,
	}, nil
}

// NewRunStarted creates a RunStarted event.
func NewRunStarted(ec *models.ExecutionContext) (*BaseEvent, error) {
	return newEvent(ec.RunID, TypeRunStarted, ec.StartedAt, RunStartedPayload{
		TenantID:   ec.TenantID,
		CallerID:   ec.CallerID,
		Keyword:    ec.Keyword,
		KeywordRef: ec.KeywordRef,
		ProductRef: ec.ProductRef,
	})
}

// NewStageEvent creates a StageCompleted, StageFailed or StageSkipped event from a result.
func NewStageEvent(runID string, result models.StageResult) (*BaseEvent, error) {
	eventType := TypeStageCompleted
	switch result.Status {
	case models.StageFailed:
		eventType = TypeStageFailed
	case models.StageSkipped:
		eventType = TypeStageSkipped
	}

	at := result.StartedAt
	if result.CompletedAt != nil {
		at = *result.CompletedAt
	}
	return newEvent(runID, eventType, at, StagePayload{
		Stage:      string(result.StageID),
		DurationMS: result.Duration().Milliseconds(),
		Error:      result.Error,
		ErrorKind:  string(result.ErrorKind),
		SkipReason: string(result.SkipReason),
	})
}

// NewArticleMaterialized creates an ArticleMaterialized event.
func NewArticleMaterialized(runID string, at time.Time, entityID string, matErr error) (*BaseEvent, error) {
	p := MaterializedPayload{EntityID: entityID}
	if matErr != nil {
		p.Error = matErr.Error()
	}
	return newEvent(runID, TypeArticleMaterialized, at, p)
}

// NewRunCompleted creates a RunCompleted event.
func NewRunCompleted(result *models.RunResult) (*BaseEvent, error) {
	completed, failed, skipped := result.Counts()
	p := RunCompletedPayload{
		Status:     string(result.Status),
		Progress:   result.Progress,
		DurationMS: result.DurationMS,
		Error:      result.Error,
		Completed:  completed,
		Failed:     failed,
		Skipped:    skipped,
	}
	if result.Result != nil {
		p.EntityID = result.Result.EntityID
		p.Title = result.Result.Title
		p.SEOScore = result.Result.SEOScore
	}
	return newEvent(result.RunID, TypeRunCompleted, result.CompletedAt, p)
}
