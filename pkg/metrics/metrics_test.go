package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedengage/pkg/logger"
	"feedengage/pkg/models"
)

func TestRecorderCountsItems(t *testing.T) {
	r := New()

	r.ItemProcessed("linkedin", models.Engaged("a", models.EngagementOutcome{}), models.RunCounters{})
	r.ItemProcessed("linkedin", models.Engaged("b", models.EngagementOutcome{}), models.RunCounters{})
	r.ItemProcessed("linkedin", models.PipelineResult{Kind: models.ResultSkippedEmpty}, models.RunCounters{})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.items.WithLabelValues("linkedin", "engaged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.items.WithLabelValues("linkedin", "skipped_empty")))
}

func TestRecorderStages(t *testing.T) {
	r := New()

	r.ObserveStage(models.StageGeneration, 2*time.Second, true)
	r.ObserveStage(models.StageGeneration, 30*time.Second, false)

	assert.Equal(t, 2, testutil.CollectAndCount(r.stages, "feedengage_stage_duration_seconds"))
}

func TestRecorderRunLifecycle(t *testing.T) {
	r := New()

	r.RunStarted(models.RunInfo{RunID: "r1", Platform: "linkedin"})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.activeRuns.WithLabelValues("linkedin")))

	r.CooldownStarted("linkedin", 5*time.Minute, "rate limited")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cooldowns.WithLabelValues("linkedin", "rate limited")))
	assert.Equal(t, 300.0, testutil.ToFloat64(r.cooldownS.WithLabelValues("linkedin")))

	r.RunFinished(models.RunSummary{
		RunID:       "r1",
		Platform:    "linkedin",
		Termination: models.Termination{Kind: models.TerminationTargetReached},
		Duration:    time.Minute,
	})
	assert.Equal(t, 0.0, testutil.ToFloat64(r.activeRuns.WithLabelValues("linkedin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("linkedin", "target reached")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	r := New()
	r.ItemProcessed("linkedin", models.Engaged("a", models.EngagementOutcome{}), models.RunCounters{})

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `feedengage_items_total{platform="linkedin",result="engaged"} 1`)
}

func TestServeStopsOnCancel(t *testing.T) {
	r := New()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- r.Serve(ctx, "127.0.0.1:0", logger.NewNopLogger())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
