package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("draft_generation", 150*time.Millisecond)
	pr.IncStageResult("draft_generation", StageCompleted)
	pr.IncStageResult("image_generation", StageFailed)
	pr.ObserveRunDuration(2 * time.Second)
	pr.IncRunOutcome(RunCompleted)
	pr.IncMaterialization(MaterializeCreated)
	pr.ObserveSEOScore(82)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 6)

	assert.InDelta(t, 1, testutil.ToFloat64(pr.stageResults.WithLabelValues("image_generation", "failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.runOutcome.WithLabelValues("completed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.materialization.WithLabelValues("created")), 0)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveStageDuration("x", time.Second)
		pr.IncRunOutcome(RunFailed)
		pr.ObserveSEOScore(10)
	})
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncRunOutcome(RunFailed)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `articleforge_run_outcomes_total{outcome="failed"} 1`))
}
