package ui

import (
	"time"

	"feedengage/pkg/models"
)

// Observer receives run progress from the orchestrator. Implementations
// must not block; they are called from the run's worker.
type Observer interface {
	RunStarted(info models.RunInfo)
	ItemProcessed(platform string, result models.PipelineResult, counters models.RunCounters)
	CooldownStarted(platform string, d time.Duration, reason string)
	RunFinished(summary models.RunSummary)
}

// Observers fans every event out to each member
type Observers []Observer

func (o Observers) RunStarted(info models.RunInfo) {
	for _, obs := range o {
		obs.RunStarted(info)
	}
}

func (o Observers) ItemProcessed(platform string, result models.PipelineResult, counters models.RunCounters) {
	for _, obs := range o {
		obs.ItemProcessed(platform, result, counters)
	}
}

func (o Observers) CooldownStarted(platform string, d time.Duration, reason string) {
	for _, obs := range o {
		obs.CooldownStarted(platform, d, reason)
	}
}

func (o Observers) RunFinished(summary models.RunSummary) {
	for _, obs := range o {
		obs.RunFinished(summary)
	}
}
