package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/domain/money"
	"github.com/wallethub/ledgercore/internal/infrastructure/observability"
)

var _ ports.AccountResolver = (*AccountResolver)(nil)

// AccountResolver resolves system accounts by their well-known
// external id and locks the rows a posting touches, always in
// ascending id order so two flows sharing a system account never
// deadlock against each other.
type AccountResolver struct {
	pool *pgxpool.Pool
}

func NewAccountResolver(pool *pgxpool.Pool) *AccountResolver {
	return &AccountResolver{pool: pool}
}

func (r *AccountResolver) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// ResolveByExternalID looks up an account by its external id without
// taking a lock; callers use this to learn enough (asset type, id) to
// build the full lock set before calling LockAccounts.
func (r *AccountResolver) ResolveByExternalID(ctx context.Context, externalID string) (*entities.Account, error) {
	q := r.getQuerier(ctx)
	const query = `
		SELECT id, external_id, kind, asset_type_id, display_name, active, created_at, updated_at
		FROM accounts
		WHERE external_id = $1
	`
	account, err := scanAccount(q.QueryRow(ctx, query, externalID))
	if err != nil {
		if err == errAccountRowNotFound {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

// LockAccounts dedups and sorts ids ascending, then locks each row
// with SELECT ... FOR UPDATE in that order and joins it to its
// balance row. Ids with no matching active account are simply absent
// from the result, not an error -- callers decide what a missing
// participant means for their flow.
func (r *AccountResolver) LockAccounts(ctx context.Context, ids []uuid.UUID) ([]entities.LockedAccount, error) {
	ordered := canonicalOrder(ids)
	if len(ordered) == 0 {
		return nil, nil
	}

	q := r.getQuerier(ctx)
	if !hasTx(ctx) {
		return nil, fmt.Errorf("lock accounts: must run inside a session")
	}

	lockStart := time.Now()
	defer func() { observability.ObserveLockWait(time.Since(lockStart)) }()

	var out []entities.LockedAccount
	for _, id := range ordered {
		const acctQuery = `
			SELECT id, external_id, kind, asset_type_id, display_name, active, created_at, updated_at
			FROM accounts
			WHERE id = $1 AND active = true
			FOR UPDATE
		`
		account, err := scanAccount(q.QueryRow(ctx, acctQuery, id))
		if err != nil {
			if err == errAccountRowNotFound {
				continue
			}
			return nil, fmt.Errorf("lock account %s: %w", id, err)
		}

		const balQuery = `
			SELECT account_id, asset_type_id, amount, version, updated_at
			FROM balances
			WHERE account_id = $1
			FOR UPDATE
		`
		balance, err := scanBalance(q.QueryRow(ctx, balQuery, id))
		if err != nil {
			return nil, fmt.Errorf("lock balance %s: %w", id, err)
		}

		out = append(out, entities.LockedAccount{Account: account, Balance: balance})
	}

	return out, nil
}

// canonicalOrder dedups and sorts ids so any two calls locking an
// overlapping set take their shared rows in the same order.
func canonicalOrder(ids []uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	var unique []uuid.UUID
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].String() < unique[j].String() })
	return unique
}

var errAccountRowNotFound = fmt.Errorf("account row not found")

func scanAccount(row pgx.Row) (*entities.Account, error) {
	var (
		id, assetTypeID      uuid.UUID
		externalID           *string
		kind, displayName    string
		active               bool
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&id, &externalID, &kind, &assetTypeID, &displayName, &active, &createdAt, &updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errAccountRowNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return entities.ReconstructAccount(id, externalID, entities.AccountKind(kind), assetTypeID, displayName, active, createdAt, updatedAt), nil
}

func scanBalance(row pgx.Row) (*entities.Balance, error) {
	var (
		accountID, assetTypeID uuid.UUID
		amount                 decimal.Decimal
		version                int64
		updatedAt              time.Time
	)
	err := row.Scan(&accountID, &assetTypeID, &amount, &version, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan balance: %w", err)
	}
	signed, err := money.NewSigned(amount)
	if err != nil {
		return nil, fmt.Errorf("balance amount out of bounds: %w", err)
	}
	return entities.ReconstructBalance(accountID, assetTypeID, signed, version, updatedAt), nil
}
