package feed

import (
	"context"

	"feedengage/pkg/models"
)

// Surface is the part of the automation driver the engine walks
type Surface interface {
	// FindVisibleCandidates returns the currently rendered item handles in
	// visible order
	FindVisibleCandidates(ctx context.Context) ([]models.ItemHandle, error)
	// ScrollStep performs one incremental scroll and reports whether the
	// page grew
	ScrollStep(ctx context.Context) (models.ScrollResult, error)
}

// IdentityProber computes an item's identity without a full extraction
type IdentityProber interface {
	Identify(ctx context.Context, handle models.ItemHandle) (models.ItemIdentity, error)
}

// SessionState reports the session guard's current view of the session
type SessionState interface {
	State() models.SessionState
}

// Ledger is the run's dedup set
type Ledger interface {
	IsNew(identity models.ItemIdentity) bool
	MarkSeen(identity models.ItemIdentity)
}
