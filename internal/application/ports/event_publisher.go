package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PostingCommittedEvent is emitted once per successfully committed flow,
// fanned out to downstream subscribers (analytics, notifications) outside
// the ledger's own consistency boundary.
type PostingCommittedEvent struct {
	TransactionID uuid.UUID
	Category      string
	AccountID     uuid.UUID
	Reference     string
	Amount        string
	OccurredAt    time.Time
}

// EventPublisher publishes a PostingCommittedEvent. Implementations may
// be a transactional outbox writer (same session as the posting, later
// drained by a background dispatcher) or a direct publish to a broker;
// the contract only promises at-least-once delivery, and subscribers
// must be idempotent.
type EventPublisher interface {
	Publish(ctx context.Context, event PostingCommittedEvent) error
}
