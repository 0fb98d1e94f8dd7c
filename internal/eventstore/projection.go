// Package eventstore records pipeline run events and projects them into run history.
package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

const (
	runStatusRunning   = "running"
	runStatusCompleted = "completed"
	runStatusFailed    = "failed"
)

// RunSummary is a read model summarizing a completed or in-progress run.
type RunSummary struct {
	RunID        string        `json:"run_id"`
	TenantID     string        `json:"tenant_id,omitempty"`
	Keyword      string        `json:"keyword,omitempty"`
	Status       string        `json:"status"` // "running", "completed", "failed"
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Progress     int           `json:"progress"`
	Completed    int           `json:"stages_completed"`
	Failed       int           `json:"stages_failed"`
	Skipped      int           `json:"stages_skipped"`
	FailedStages []string      `json:"failed_stages,omitempty"`
	EntityID     string        `json:"entity_id,omitempty"`
	Title        string        `json:"title,omitempty"`
	SEOScore     *int          `json:"seo_score,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// RunHistoryProjection maintains an in-memory view of run history,
// reconstructed from events stored in the event store.
type RunHistoryProjection struct {
	mu       sync.RWMutex
	store    Store
	runs     map[string]*RunSummary
	history  []*RunSummary // newest first
	maxSize  int
	lastSync time.Time
}

// NewRunHistoryProjection creates a new projection backed by the given store.
func NewRunHistoryProjection(store Store, maxHistorySize int) *RunHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &RunHistoryProjection{
		store:   store,
		runs:    make(map[string]*RunSummary),
		history: make([]*RunSummary, 0, maxHistorySize),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *RunHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.runs = make(map[string]*RunSummary)
	p.history = make([]*RunSummary, 0, p.maxSize)

	for _, event := range events {
		p.applyEventLocked(event)
	}

	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneRunsLocked()

	p.lastSync = time.Now()
	return nil
}

// Apply processes a single event and updates the projection.
func (p *RunHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *RunHistoryProjection) applyEventLocked(event Event) {
	runID := event.RunID()
	if runID == "" {
		return
	}

	summary, exists := p.runs[runID]
	if !exists {
		summary = &RunSummary{
			RunID:     runID,
			Status:    runStatusRunning,
			StartedAt: event.Timestamp(),
		}
		p.runs[runID] = summary
	}

	switch event.Type() {
	case TypeRunStarted:
		summary.StartedAt = event.Timestamp()
		var payload RunStartedPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.TenantID = payload.TenantID
			summary.Keyword = payload.Keyword
		}

	case TypeStageCompleted:
		summary.Completed++

	case TypeStageSkipped:
		summary.Skipped++

	case TypeStageFailed:
		summary.Failed++
		var payload StagePayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.FailedStages = append(summary.FailedStages, payload.Stage)
		}

	case TypeArticleMaterialized:
		var payload MaterializedPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil && payload.EntityID != "" {
			summary.EntityID = payload.EntityID
		}

	case TypeRunCompleted:
		at := event.Timestamp()
		summary.CompletedAt = &at
		summary.Duration = at.Sub(summary.StartedAt)
		summary.Status = runStatusCompleted
		var payload RunCompletedPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			if payload.Status == runStatusFailed {
				summary.Status = runStatusFailed
			}
			summary.Progress = payload.Progress
			summary.ErrorMessage = payload.Error
			summary.Title = payload.Title
			summary.SEOScore = payload.SEOScore
			if payload.EntityID != "" {
				summary.EntityID = payload.EntityID
			}
			if payload.DurationMS > 0 {
				summary.Duration = time.Duration(payload.DurationMS) * time.Millisecond
			}
		}
		p.addToHistoryLocked(summary)
	}
}

func (p *RunHistoryProjection) addToHistoryLocked(summary *RunSummary) {
	for _, h := range p.history {
		if h.RunID == summary.RunID {
			return
		}
	}

	p.history = append([]*RunSummary{summary}, p.history...)
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneRunsLocked()
}

// pruneRunsLocked drops finished runs that fell out of the bounded history.
// Caller must hold p.mu (write lock).
func (p *RunHistoryProjection) pruneRunsLocked() {
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		keep[h.RunID] = struct{}{}
	}

	for id, summary := range p.runs {
		if summary.Status == runStatusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.runs, id)
		}
	}
}

func cloneSummary(s *RunSummary) *RunSummary {
	cp := *s
	cp.FailedStages = append([]string(nil), s.FailedStages...)
	return &cp
}

// GetHistory returns finished runs, newest first.
func (p *RunHistoryProjection) GetHistory() []*RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*RunSummary, len(p.history))
	for i, s := range p.history {
		result[i] = cloneSummary(s)
	}
	return result
}

// GetRun returns the summary for a specific run.
func (p *RunHistoryProjection) GetRun(runID string) (*RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, exists := p.runs[runID]
	if !exists {
		return nil, false
	}
	return cloneSummary(summary), true
}

// GetActiveRuns returns runs that have started but not completed.
func (p *RunHistoryProjection) GetActiveRuns() []*RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []*RunSummary
	for _, summary := range p.runs {
		if summary.Status == runStatusRunning {
			out = append(out, cloneSummary(summary))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// LastSyncTime returns when the projection was last rebuilt.
func (p *RunHistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}
