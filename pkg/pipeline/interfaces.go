package pipeline

import (
	"context"
	"time"

	"feedengage/pkg/models"
)

// Extractor reads an item's fields from the live surface. An empty Text
// means nothing usable was found.
type Extractor interface {
	Extract(ctx context.Context, handle models.ItemHandle) (models.ExtractedItem, error)
}

// Generator produces a reaction decision for an extracted item
type Generator interface {
	Generate(ctx context.Context, item models.ExtractedItem, promptTemplate string) (models.EngagementDecision, error)
}

// Executor performs the visible engagement actions. A false result with a
// nil error means the action did not take effect.
type Executor interface {
	React(ctx context.Context, handle models.ItemHandle, category models.Category) (bool, error)
	Comment(ctx context.Context, handle models.ItemHandle, text string) (bool, error)
}

// Pauser inserts the human-like delay between react and comment
type Pauser interface {
	Pause(ctx context.Context) error
}

// StageObserver receives the duration and success of every stage
type StageObserver interface {
	ObserveStage(stage string, d time.Duration, ok bool)
}
