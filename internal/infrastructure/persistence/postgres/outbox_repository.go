package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wallethub/ledgercore/internal/application/ports"
)

var (
	_ ports.EventPublisher = (*OutboxRepository)(nil)
	_ ports.OutboxStore    = (*OutboxRepository)(nil)
)

// OutboxRepository implements ports.EventPublisher by writing to the
// outbox table inside the caller's session. A separate dispatcher
// (infrastructure/events) later drains PENDING rows with SELECT ...
// FOR UPDATE SKIP LOCKED and forwards them to NATS.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

func (r *OutboxRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Publish writes the event to the outbox table. It never talks to NATS
// directly: at-least-once delivery is the dispatcher's job, and writing
// here inside the posting's own transaction is what makes the write
// atomic with the balance update it describes.
func (r *OutboxRepository) Publish(ctx context.Context, event ports.PostingCommittedEvent) error {
	q := r.getQuerier(ctx)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal posting committed event: %w", err)
	}

	entry := ports.OutboxEntry{
		ID:            uuid.New(),
		AggregateType: "transaction",
		AggregateID:   event.TransactionID,
		EventType:     "posting.committed",
		Payload:       payload,
		Status:        "PENDING",
		CreatedAt:     time.Now(),
	}

	const query = `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = q.Exec(ctx, query, entry.ID, entry.AggregateType, entry.AggregateID, entry.EventType, entry.Payload, entry.Status, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// FindUnpublished claims up to limit PENDING rows for dispatch, locking
// them with FOR UPDATE SKIP LOCKED so multiple dispatcher instances can
// run concurrently without contending on the same rows.
func (r *OutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]ports.OutboxEntry, error) {
	q := r.getQuerier(ctx)
	const query = `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, status, created_at
		FROM outbox
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("find unpublished outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []ports.OutboxEntry
	for rows.Next() {
		var e ports.OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return entries, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	q := r.getQuerier(ctx)
	const query = `UPDATE outbox SET status = 'PUBLISHED', published_at = $2 WHERE id = $1`
	_, err := q.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("mark outbox entry published: %w", err)
	}
	return nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	q := r.getQuerier(ctx)
	const query = `UPDATE outbox SET status = 'FAILED', failure_reason = $2 WHERE id = $1`
	_, err := q.Exec(ctx, query, id, reason)
	if err != nil {
		return fmt.Errorf("mark outbox entry failed: %w", err)
	}
	return nil
}

// CleanupPublished deletes PUBLISHED rows older than olderThan, bounding
// the table's growth the way the idempotency store's retention window
// bounds its own.
func (r *OutboxRepository) CleanupPublished(ctx context.Context, olderThan time.Time) (int64, error) {
	q := r.getQuerier(ctx)
	const query = `DELETE FROM outbox WHERE status = 'PUBLISHED' AND published_at < $1`
	tag, err := q.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("cleanup published outbox entries: %w", err)
	}
	return tag.RowsAffected(), nil
}
