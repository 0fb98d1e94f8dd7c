package models

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func syntheticStages() []StageResult {
	return []StageResult{
		NewCompletedResult(StageSERPAnalysis, t0, t0.Add(120*time.Millisecond)),
		NewFailedResult(StageOutlineGeneration, t0, t0.Add(time.Second), NewStageError(StageOutlineGeneration, errors.New("bad json"))),
		NewCompletedResult(StageDraftGeneration, t0, t0.Add(2*time.Second)),
		NewSkippedResult(StageInternalLinking, t0, SkipByPredicate),
	}
}

func syntheticData() PipelineData {
	return PipelineData{
		Draft:         &Draft{Title: "Espresso", Slug: "espresso", Content: "# Espresso", WordCount: 1},
		EntityID:      "a-1",
		ExternalLinks: []ExternalLink{{URL: "https://example.org"}},
		Images:        []GeneratedImage{{Kind: ImageInline, URL: "i"}, {Kind: ImageFeatured, URL: "f"}},
		SEO:           &SEOAnalysis{Score: 72, Recommendations: []string{"Add links"}},
		Fingerprint:   "fp",
		Notes:         []string{"external_linking: degraded"},
	}
}

func TestBuildRunResultIsPure(t *testing.T) {
	meta := ReportMeta{RunID: "r1", StartedAt: t0, CompletedAt: t0.Add(3 * time.Second)}
	stages := syntheticStages()
	data := syntheticData()

	a := BuildRunResult(meta, data, stages, RunCompleted)
	b := BuildRunResult(meta, data, stages, RunCompleted)
	aj, err := a.JSON()
	require.NoError(t, err)
	bj, err := b.JSON()
	require.NoError(t, err)
	assert.Equal(t, aj, bj)

	*a.Stages[0].DurationMS = 999
	a.Notes[0] = "mutated"
	assert.Equal(t, int64(120), *stages[0].DurationMS)
	assert.Equal(t, "external_linking: degraded", data.Notes[0])
}

func TestBuildRunResultProjection(t *testing.T) {
	meta := ReportMeta{RunID: "r1", StartedAt: t0, CompletedAt: t0.Add(3 * time.Second)}
	res := BuildRunResult(meta, syntheticData(), syntheticStages(), RunCompleted)

	assert.Equal(t, ReportSchemaVersion, res.SchemaVersion)
	assert.Equal(t, 50, res.Progress)
	assert.Equal(t, int64(3000), res.DurationMS)
	require.NotNil(t, res.Result)
	assert.Equal(t, "a-1", res.Result.EntityID)
	assert.Equal(t, "f", res.Result.FeaturedImageURL)
	assert.Equal(t, 1, res.Result.ExternalLinkCount)
	assert.Equal(t, 0, res.Result.InternalLinkCount)
	require.NotNil(t, res.Result.SEOScore)
	assert.Equal(t, 72, *res.Result.SEOScore)

	outline, ok := res.StageResult(StageOutlineGeneration)
	require.True(t, ok)
	assert.Equal(t, StageErrorFailed, outline.ErrorKind)
	assert.Contains(t, outline.Error, "bad json")
	assert.Equal(t, time.Second, outline.Duration())

	completed, failed, skipped := res.Counts()
	assert.Equal(t, [3]int{2, 1, 1}, [3]int{completed, failed, skipped})
	assert.Contains(t, res.Summary(), "run=r1 status=completed progress=50%")

	empty := BuildRunResult(ReportMeta{RunID: "r2", RunError: "boom"}, PipelineData{}, nil, RunFailed)
	assert.Nil(t, empty.Result)
	assert.Equal(t, 0, empty.Progress)
	assert.Equal(t, "boom", empty.Error)
}

func TestComputeProgress(t *testing.T) {
	mk := func(statuses ...StageStatus) []StageResult {
		out := make([]StageResult, len(statuses))
		for i, s := range statuses {
			out[i] = StageResult{StageID: StageID(fmt.Sprint(i)), Status: s}
		}
		return out
	}
	assert.Equal(t, 0, ComputeProgress(nil))
	assert.Equal(t, 100, ComputeProgress(mk(StageCompleted, StageCompleted)))
	assert.Equal(t, 87, ComputeProgress(mk(StageCompleted, StageCompleted, StageCompleted, StageCompleted, StageCompleted, StageCompleted, StageCompleted, StageSkipped)))
	assert.Equal(t, 33, ComputeProgress(mk(StageCompleted, StageFailed, StageSkipped)))
}

func TestStageErrorKinds(t *testing.T) {
	timeout := NewStageError(StageDraftGeneration, fmt.Errorf("call: %w", context.DeadlineExceeded))
	assert.Equal(t, StageErrorTimeout, timeout.Kind)
	assert.True(t, timeout.Transient())

	canceled := NewStageError(StageDraftGeneration, context.Canceled)
	assert.Equal(t, StageErrorCanceled, canceled.Kind)
	assert.False(t, canceled.Transient())

	p := NewPanicStageError(StageSEOScoring, "index out of range")
	assert.ErrorIs(t, p, ErrStagePanic)
	assert.Contains(t, p.Error(), "stage seo_scoring panic")

	plain := NewStageError(StageSERPAnalysis, errors.New("boom"))
	assert.False(t, plain.Transient())
	var nilErr *StageError
	assert.False(t, nilErr.Transient())
}
