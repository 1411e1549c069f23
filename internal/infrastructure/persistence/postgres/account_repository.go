package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/entities"
)

var _ ports.AccountRepository = (*AccountRepository)(nil)

// AccountRepository is the administrative CRUD surface for accounts.
// Balance mutation never goes through here -- only AccountResolver and
// PostingEngine touch the balance-cache row, both under a row lock.
type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Create inserts the account row and then its zero-balance cache row as
// two statements. They are atomic only when ctx carries a session
// transaction; against the bare pool a failed second insert leaves the
// account without a balance row.
func (r *AccountRepository) Create(ctx context.Context, account *entities.Account) error {
	q := r.getQuerier(ctx)

	const acctQuery = `
		INSERT INTO accounts (id, external_id, kind, asset_type_id, display_name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := q.Exec(ctx, acctQuery,
		account.ID(), account.ExternalID(), string(account.Kind()), account.AssetTypeID(),
		account.DisplayName(), account.Active(), account.CreatedAt(), account.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err, "accounts_external_id_unique") {
			return fmt.Errorf("external id already in use: %w", err)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("unknown asset type: %w", err)
		}
		return fmt.Errorf("insert account: %w", err)
	}

	const balQuery = `
		INSERT INTO balances (account_id, asset_type_id, amount, version, updated_at)
		VALUES ($1, $2, 0, 0, $3)
	`
	if _, err := q.Exec(ctx, balQuery, account.ID(), account.AssetTypeID(), time.Now()); err != nil {
		return fmt.Errorf("insert balance row: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	q := r.getQuerier(ctx)
	const query = `
		SELECT id, external_id, kind, asset_type_id, display_name, active, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	account, err := scanAccount(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, errAccountRowNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

func (r *AccountRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	q := r.getQuerier(ctx)
	const query = `UPDATE accounts SET active = false, updated_at = $2 WHERE id = $1`
	tag, err := q.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deactivate account: %w", pgx.ErrNoRows)
	}
	return nil
}
