package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/domain/ledgererrors"
)

var _ ports.TransactionRepository = (*TransactionRepository)(nil)

// TransactionRepository appends the single transaction row a flow
// writes per successful request, inside the same session as its
// journal entries and balance updates.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *TransactionRepository) Create(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	metadataJSON, err := json.Marshal(tx.Metadata())
	if err != nil {
		return fmt.Errorf("marshal transaction metadata: %w", err)
	}

	const query = `
		INSERT INTO transactions (id, category, reference, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = q.Exec(ctx, query, tx.ID(), string(tx.Category()), tx.Reference(), tx.Description(), metadataJSON, tx.CreatedAt())
	if err != nil {
		if isUniqueViolation(err, "transactions_reference_unique") {
			return ledgererrors.New(ledgererrors.KindDuplicateReference,
				fmt.Sprintf("reference %q already used", tx.Reference()), ledgererrors.ErrDuplicateReference)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}
