package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxEntry is one row of the transactional outbox: an event recorded
// in the same session as the posting it describes, not yet (or already)
// forwarded to the broker.
type OutboxEntry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	EventType     string
	Payload       []byte
	Status        string
	CreatedAt     time.Time
}

// OutboxStore is the drain side of the transactional outbox, used by a
// background dispatcher that may run in a separate process from
// whatever wrote the entry via EventPublisher. Every method is expected
// to participate in the caller's session when one is present (see
// SessionRunner), since claiming a batch for dispatch and marking it
// published must happen under the same row lock.
type OutboxStore interface {
	FindUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	CleanupPublished(ctx context.Context, olderThan time.Time) (int64, error)
}
