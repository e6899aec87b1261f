package history

import (
	"sync"
	"time"

	"feedengage/pkg/models"
)

// Recorder collects a run's events and saves the report when the run
// finishes. It is safe to share between concurrent runs of different
// platforms.
type Recorder struct {
	manager *Manager
	keep    int

	mu      sync.Mutex
	pending map[string]*Report
}

// NewRecorder creates a recorder that keeps at most keep reports on disk;
// keep <= 0 disables pruning
func NewRecorder(m *Manager, keep int) *Recorder {
	return &Recorder{
		manager: m,
		keep:    keep,
		pending: make(map[string]*Report),
	}
}

func (r *Recorder) RunStarted(info models.RunInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[info.Platform] = &Report{
		RunID:    info.RunID,
		Platform: info.Platform,
		Target:   info.Target,
		Items:    []ItemRecord{},
	}
}

func (r *Recorder) ItemProcessed(platform string, result models.PipelineResult, counters models.RunCounters) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rep, ok := r.pending[platform]; ok {
		rep.Items = append(rep.Items, NewItemRecord(result))
	}
}

func (r *Recorder) CooldownStarted(platform string, d time.Duration, reason string) {}

func (r *Recorder) RunFinished(summary models.RunSummary) {
	r.mu.Lock()
	rep, ok := r.pending[summary.Platform]
	delete(r.pending, summary.Platform)
	r.mu.Unlock()

	if !ok {
		rep = &Report{RunID: summary.RunID, Platform: summary.Platform, Items: []ItemRecord{}}
	}
	rep.Summary = summary
	rep.FinishedAt = summary.StartedAt.Add(summary.Duration)

	if err := r.manager.Save(rep); err != nil {
		r.manager.logger.WithError(err).WithField("run_id", summary.RunID).Error("Failed to save run report")
		return
	}
	if r.keep > 0 {
		if _, err := r.manager.Prune(r.keep); err != nil {
			r.manager.logger.WithError(err).Warn("Failed to prune run history")
		}
	}
}
