package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"
)

// ReportSchemaVersion is bumped when the serialized RunResult shape changes incompatibly.
const ReportSchemaVersion = 1

// StageResult is the execution record of one registry entry.
type StageResult struct {
	StageID     StageID        `json:"stage_id"`
	Status      StageStatus    `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	DurationMS  *int64         `json:"duration_ms,omitempty"`
	Error       string         `json:"error,omitempty"`
	ErrorKind   StageErrorKind `json:"error_kind,omitempty"`
	Transient   bool           `json:"transient,omitempty"`
	SkipReason  SkipReason     `json:"skip_reason,omitempty"`
}

// Duration returns the recorded stage duration (zero for skipped stages).
func (r StageResult) Duration() time.Duration {
	if r.DurationMS == nil {
		return 0
	}
	return time.Duration(*r.DurationMS) * time.Millisecond
}

// NewCompletedResult records a successful stage.
func NewCompletedResult(id StageID, start, end time.Time) StageResult {
	return timedResult(id, StageCompleted, start, end)
}

// NewFailedResult records a failed stage and its error.
func NewFailedResult(id StageID, start, end time.Time, err error) StageResult {
	res := timedResult(id, StageFailed, start, end)
	if err != nil {
		res.Error = err.Error()
		var se *StageError
		if errors.As(err, &se) {
			res.ErrorKind = se.Kind
			res.Transient = se.Transient()
		}
	}
	return res
}

// NewSkippedResult records a stage that did not run.
func NewSkippedResult(id StageID, at time.Time, reason SkipReason) StageResult {
	return StageResult{StageID: id, Status: StageSkipped, StartedAt: at, SkipReason: reason}
}

func timedResult(id StageID, status StageStatus, start, end time.Time) StageResult {
	ms := end.Sub(start).Milliseconds()
	completed := end
	return StageResult{StageID: id, Status: status, StartedAt: start, CompletedAt: &completed, DurationMS: &ms}
}

// RunStatus is the overall outcome of a run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ArticleResult is the consolidated output payload of a run.
type ArticleResult struct {
	EntityID           string   `json:"entity_id,omitempty"`
	Title              string   `json:"title,omitempty"`
	Slug               string   `json:"slug,omitempty"`
	Content            string   `json:"content,omitempty"`
	Excerpt            string   `json:"excerpt,omitempty"`
	MetaTitle          string   `json:"meta_title,omitempty"`
	MetaDescription    string   `json:"meta_description,omitempty"`
	WordCount          int      `json:"word_count,omitempty"`
	SEOScore           *int     `json:"seo_score,omitempty"`
	SEORecommendations []string `json:"seo_recommendations,omitempty"`
	FeaturedImageURL   string   `json:"featured_image_url,omitempty"`
	InternalLinkCount  int      `json:"internal_link_count"`
	ExternalLinkCount  int      `json:"external_link_count"`
	Fingerprint        string   `json:"fingerprint,omitempty"`
}

// RunResult is the final artifact of a pipeline run.
type RunResult struct {
	SchemaVersion int            `json:"schema_version"`
	RunID         string         `json:"run_id"`
	Status        RunStatus      `json:"status"`
	Progress      int            `json:"progress"`
	Stages        []StageResult  `json:"stages"`
	Result        *ArticleResult `json:"result,omitempty"`
	Error         string         `json:"error,omitempty"`
	Notes         []string       `json:"notes,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	CompletedAt   time.Time      `json:"completed_at"`
	DurationMS    int64          `json:"duration_ms"`
}

// ReportMeta is the run-level metadata the report builder needs.
type ReportMeta struct {
	RunID       string
	StartedAt   time.Time
	CompletedAt time.Time
	// RunError is set only when the orchestration itself failed.
	RunError string
}

// BuildRunResult assembles a RunResult. It performs no I/O and copies every
// input, so identical inputs always yield identical (and identically serialized) output.
func BuildRunResult(meta ReportMeta, data PipelineData, stages []StageResult, status RunStatus) RunResult {
	copied := make([]StageResult, len(stages))
	for i, s := range stages {
		if s.CompletedAt != nil {
			t := *s.CompletedAt
			s.CompletedAt = &t
		}
		if s.DurationMS != nil {
			d := *s.DurationMS
			s.DurationMS = &d
		}
		copied[i] = s
	}

	res := RunResult{
		SchemaVersion: ReportSchemaVersion,
		RunID:         meta.RunID,
		Status:        status,
		Progress:      ComputeProgress(stages),
		Stages:        copied,
		Result:        projectArticle(data),
		Error:         meta.RunError,
		Notes:         slices.Clone(data.Notes),
		StartedAt:     meta.StartedAt,
		CompletedAt:   meta.CompletedAt,
	}
	if !meta.CompletedAt.IsZero() && !meta.StartedAt.IsZero() {
		res.DurationMS = meta.CompletedAt.Sub(meta.StartedAt).Milliseconds()
	}
	return res
}

// ComputeProgress returns the integer percentage of completed stages.
// Skipped stages count toward the total only.
func ComputeProgress(stages []StageResult) int {
	if len(stages) == 0 {
		return 0
	}
	completed := 0
	for _, s := range stages {
		if s.Status == StageCompleted {
			completed++
		}
	}
	return completed * 100 / len(stages)
}

func projectArticle(data PipelineData) *ArticleResult {
	if data.Draft == nil && data.EntityID == "" {
		return nil
	}
	out := &ArticleResult{
		EntityID:          data.EntityID,
		InternalLinkCount: len(data.InternalLinks),
		ExternalLinkCount: len(data.ExternalLinks),
		Fingerprint:       data.Fingerprint,
	}
	if d := data.Draft; d != nil {
		out.Title = d.Title
		out.Slug = d.Slug
		out.Content = d.Content
		out.Excerpt = d.Excerpt
		out.MetaTitle = d.MetaTitle
		out.MetaDescription = d.MetaDescription
		out.WordCount = d.WordCount
	}
	if data.SEO != nil {
		score := data.SEO.Score
		out.SEOScore = &score
		out.SEORecommendations = slices.Clone(data.SEO.Recommendations)
	}
	if img, ok := data.FeaturedImage(); ok {
		out.FeaturedImageURL = img.URL
	}
	return out
}

// StageResult returns the record for id, if present.
func (r *RunResult) StageResult(id StageID) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.StageID == id {
			return s, true
		}
	}
	return StageResult{}, false
}

// Counts returns the number of completed, failed and skipped stages.
func (r *RunResult) Counts() (completed, failed, skipped int) {
	for _, s := range r.Stages {
		switch s.Status {
		case StageCompleted:
			completed++
		case StageFailed:
			failed++
		case StageSkipped:
			skipped++
		}
	}
	return completed, failed, skipped
}

// Summary returns a human-readable single-line summary.
func (r *RunResult) Summary() string {
	completed, failed, skipped := r.Counts()
	entity := ""
	if r.Result != nil {
		entity = r.Result.EntityID
	}
	dur := time.Duration(r.DurationMS) * time.Millisecond
	return fmt.Sprintf("run=%s status=%s progress=%d%% stages=%d completed=%d failed=%d skipped=%d entity=%s duration=%s",
		r.RunID, r.Status, r.Progress, len(r.Stages), completed, failed, skipped, entity, dur)
}

// JSON returns the indented serialized report.
func (r *RunResult) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
