package orchestrator

import (
	"context"

	"feedengage/pkg/models"
)

// Driver is the automation surface one run owns. The browser package
// provides the production implementation.
type Driver interface {
	// ProbeLiveness reports whether the session is authenticated
	ProbeLiveness(ctx context.Context) bool
	// Login performs the platform's login sequence
	Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error)
	// OpenFeed navigates to the platform's feed
	OpenFeed(ctx context.Context) error
	// FindVisibleCandidates enumerates item handles top to bottom
	FindVisibleCandidates(ctx context.Context) ([]models.ItemHandle, error)
	// ScrollStep scrolls once and reports whether the page grew
	ScrollStep(ctx context.Context) (models.ScrollResult, error)
	// Identify returns the dedup identity of a handle
	Identify(ctx context.Context, handle models.ItemHandle) (models.ItemIdentity, error)
	// Teardown releases the automation session
	Teardown(ctx context.Context) error
}

// Processor runs the per-item pipeline
type Processor interface {
	Process(ctx context.Context, handle models.ItemHandle) models.PipelineResult
}

// Pacer spaces consecutive actions
type Pacer interface {
	// Acquire waits for the action budget
	Acquire(ctx context.Context) error
	// Pause waits a randomized inter-item delay
	Pause(ctx context.Context) error
}
