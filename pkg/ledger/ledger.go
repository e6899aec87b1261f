// Package ledger records which feed items a run has already yielded.
package ledger

import "feedengage/pkg/models"

// Ledger is the append-only dedup set of one run. It is owned by the
// orchestrator and discarded when the run ends; nothing is persisted.
// A Ledger is not safe for concurrent use: each run is sequential.
type Ledger struct {
	seen map[models.ItemIdentity]struct{}
}

// New returns an empty ledger
func New() *Ledger {
	return &Ledger{seen: make(map[models.ItemIdentity]struct{})}
}

// IsNew reports whether identity has not been marked seen in this run
func (l *Ledger) IsNew(identity models.ItemIdentity) bool {
	_, ok := l.seen[identity]
	return !ok
}

// MarkSeen records identity. Marking twice is a no-op.
func (l *Ledger) MarkSeen(identity models.ItemIdentity) {
	l.seen[identity] = struct{}{}
}

// Len returns the number of distinct identities seen
func (l *Ledger) Len() int {
	return len(l.seen)
}
