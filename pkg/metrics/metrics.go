// Package metrics exports run and pipeline statistics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"feedengage/pkg/models"
)

const namespace = "feedengage"

// Recorder holds the collectors for one registry. It implements both the
// pipeline's stage observer and the run observer.
type Recorder struct {
	registry *prometheus.Registry

	items      *prometheus.CounterVec
	stages     *prometheus.HistogramVec
	cooldowns  *prometheus.CounterVec
	cooldownS  *prometheus.CounterVec
	runs       *prometheus.CounterVec
	activeRuns *prometheus.GaugeVec
	runSeconds *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		items: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Feed items processed, by platform and result.",
		}, []string{"platform", "result"}),
		stages: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage", "outcome"}),
		cooldowns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldowns_total",
			Help:      "Cooldowns entered, by platform and reason.",
		}, []string{"platform", "reason"}),
		cooldownS: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldown_seconds_total",
			Help:      "Time spent in cooldown.",
		}, []string{"platform"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs, by platform and termination.",
		}, []string{"platform", "termination"}),
		activeRuns: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Runs currently in progress.",
		}, []string{"platform"}),
		runSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of finished runs.",
			Buckets:   prometheus.ExponentialBuckets(30, 2, 10),
		}, []string{"platform"}),
	}
}

// Registry returns the registry the collectors live on
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveStage records one pipeline stage
func (r *Recorder) ObserveStage(stage string, d time.Duration, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	r.stages.WithLabelValues(stage, outcome).Observe(d.Seconds())
}

func (r *Recorder) RunStarted(info models.RunInfo) {
	r.activeRuns.WithLabelValues(info.Platform).Inc()
}

func (r *Recorder) ItemProcessed(platform string, result models.PipelineResult, _ models.RunCounters) {
	r.items.WithLabelValues(platform, string(result.Kind)).Inc()
}

func (r *Recorder) CooldownStarted(platform string, d time.Duration, reason string) {
	r.cooldowns.WithLabelValues(platform, reason).Inc()
	r.cooldownS.WithLabelValues(platform).Add(d.Seconds())
}

func (r *Recorder) RunFinished(summary models.RunSummary) {
	r.activeRuns.WithLabelValues(summary.Platform).Dec()
	r.runs.WithLabelValues(summary.Platform, string(summary.Termination.Kind)).Inc()
	r.runSeconds.WithLabelValues(summary.Platform).Observe(summary.Duration.Seconds())
}
