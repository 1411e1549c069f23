package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/infrastructure/observability"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore persists one row per caller-supplied reference.
// Lookup ignores rows whose expiry has passed rather than deleting them
// inline. Nothing in this repository deletes expired rows; they stay in
// the table until removed outside the service.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

func (s *IdempotencyStore) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *IdempotencyStore) Lookup(ctx context.Context, reference string) (*entities.IdempotencyRecord, error) {
	q := s.getQuerier(ctx)
	const query = `
		SELECT reference, response_status, response_body, created_at, expires_at
		FROM idempotency_records
		WHERE reference = $1
	`
	var (
		ref                  string
		status               int
		body                 []byte
		createdAt, expiresAt time.Time
	)
	err := q.QueryRow(ctx, query, reference).Scan(&ref, &status, &body, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			observability.RecordIdempotencyLookup(false)
			return nil, nil
		}
		return nil, fmt.Errorf("lookup idempotency record: %w", err)
	}
	record := entities.ReconstructIdempotencyRecord(ref, status, body, createdAt, expiresAt)
	if !record.Live(time.Now()) {
		observability.RecordIdempotencyLookup(false)
		return nil, nil
	}
	observability.RecordIdempotencyLookup(true)
	return record, nil
}

// Store inserts the record, doing nothing on a reference collision --
// whichever concurrent attempt committed first owns the stored
// response, and the loser's own insert into idempotency_records is
// simply discarded.
func (s *IdempotencyStore) Store(ctx context.Context, record *entities.IdempotencyRecord) error {
	q := s.getQuerier(ctx)
	const query = `
		INSERT INTO idempotency_records (reference, response_status, response_body, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (reference) DO NOTHING
	`
	_, err := q.Exec(ctx, query, record.Reference(), record.ResponseStatus(), record.ResponseBody(), record.CreatedAt(), record.ExpiresAt())
	if err != nil {
		return fmt.Errorf("store idempotency record: %w", err)
	}
	return nil
}
