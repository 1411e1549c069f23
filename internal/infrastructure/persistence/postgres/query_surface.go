package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/domain/ledgererrors"
	"github.com/wallethub/ledgercore/internal/domain/money"
	"github.com/wallethub/ledgercore/internal/infrastructure/observability"
)

var _ ports.QuerySurface = (*QuerySurface)(nil)

// auditTolerance is the epsilon the audit routine allows between the
// cached balance and a full journal recomputation, a defense-in-depth
// margin even though decimal aggregation over NUMERIC is exact.
var auditTolerance = mustTolerance()

func mustTolerance() money.Amount {
	a, err := money.NewFromString("0.00000001")
	if err != nil {
		panic(err)
	}
	return a
}

// QuerySurface answers balance, history and audit reads. None of its
// queries take a row lock -- every call may run outside a session and
// observe any consistent committed snapshot.
type QuerySurface struct {
	pool *pgxpool.Pool
}

func NewQuerySurface(pool *pgxpool.Pool) *QuerySurface {
	return &QuerySurface{pool: pool}
}

func (s *QuerySurface) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *QuerySurface) Balance(ctx context.Context, accountID uuid.UUID) (ports.BalanceSnapshot, error) {
	q := s.getQuerier(ctx)
	const query = `
		SELECT b.account_id, t.code, b.amount, b.version, b.updated_at
		FROM balances b
		JOIN asset_types t ON t.id = b.asset_type_id
		JOIN accounts a ON a.id = b.account_id
		WHERE b.account_id = $1 AND a.active
	`
	var (
		snap   ports.BalanceSnapshot
		amount decimal.Decimal
	)
	err := q.QueryRow(ctx, query, accountID).Scan(&snap.AccountID, &snap.AssetTypeCode, &amount, &snap.Version, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ports.BalanceSnapshot{}, ledgererrors.New(ledgererrors.KindAccountNotFound,
				fmt.Sprintf("account %s not found or inactive", accountID), ledgererrors.ErrAccountNotFound)
		}
		return ports.BalanceSnapshot{}, fmt.Errorf("balance query: %w", err)
	}
	signed, err := money.NewSigned(amount)
	if err != nil {
		return ports.BalanceSnapshot{}, fmt.Errorf("balance amount out of bounds: %w", err)
	}
	snap.Amount = signed
	return snap, nil
}

func (s *QuerySurface) History(ctx context.Context, accountID uuid.UUID, filter ports.HistoryFilter) (ports.HistoryPage, error) {
	q := s.getQuerier(ctx)

	base := `
		FROM journal_entries j
		JOIN transactions t ON t.id = j.transaction_id
		WHERE j.account_id = $1
	`
	args := []interface{}{accountID}
	if filter.Category != nil {
		base += fmt.Sprintf(" AND t.category = $%d", len(args)+1)
		args = append(args, string(*filter.Category))
	}

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(*) "+base, args...).Scan(&total); err != nil {
		return ports.HistoryPage{}, fmt.Errorf("history count: %w", err)
	}

	selectQuery := `
		SELECT j.id, j.transaction_id, t.category, t.reference, t.description, j.amount, j.balance_after, j.created_at
	` + base + fmt.Sprintf(" ORDER BY j.created_at DESC OFFSET $%d LIMIT $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Offset, filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return ports.HistoryPage{}, fmt.Errorf("history query: %w", err)
	}
	defer rows.Close()

	var entries []ports.HistoryEntry
	for rows.Next() {
		var (
			entry                    ports.HistoryEntry
			category                 string
			amount, balanceAfter     decimal.Decimal
		)
		if err := rows.Scan(&entry.JournalEntryID, &entry.TransactionID, &category, &entry.Reference, &entry.Description, &amount, &balanceAfter, &entry.CreatedAt); err != nil {
			return ports.HistoryPage{}, fmt.Errorf("scan history row: %w", err)
		}
		signedAmount, err := money.NewSigned(amount)
		if err != nil {
			return ports.HistoryPage{}, fmt.Errorf("history amount out of bounds: %w", err)
		}
		signedBalance, err := money.NewSigned(balanceAfter)
		if err != nil {
			return ports.HistoryPage{}, fmt.Errorf("history balance out of bounds: %w", err)
		}
		entry.Category = entities.Category(category)
		entry.Amount = signedAmount.Neg()
		entry.BalanceAfter = signedBalance
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return ports.HistoryPage{}, fmt.Errorf("iterate history rows: %w", err)
	}

	return ports.HistoryPage{Entries: entries, Total: total}, nil
}

// Audit recomputes the account's balance as the negated sum of its
// journal amounts and compares it against the balance cache.
func (s *QuerySurface) Audit(ctx context.Context, accountID uuid.UUID) (ports.AuditReport, error) {
	q := s.getQuerier(ctx)

	var sum decimal.NullDecimal
	const sumQuery = `SELECT SUM(amount) FROM journal_entries WHERE account_id = $1`
	if err := q.QueryRow(ctx, sumQuery, accountID).Scan(&sum); err != nil {
		return ports.AuditReport{}, fmt.Errorf("audit sum: %w", err)
	}
	recomputedSigned := money.Zero()
	if sum.Valid {
		var err error
		recomputedSigned, err = money.NewSigned(sum.Decimal)
		if err != nil {
			return ports.AuditReport{}, fmt.Errorf("audit recomputed amount out of bounds: %w", err)
		}
	}
	recomputed := recomputedSigned.Neg()

	var cachedAmount decimal.Decimal
	const balQuery = `SELECT amount FROM balances WHERE account_id = $1`
	if err := q.QueryRow(ctx, balQuery, accountID).Scan(&cachedAmount); err != nil {
		return ports.AuditReport{}, fmt.Errorf("audit cached balance: %w", err)
	}
	cached, err := money.NewSigned(cachedAmount)
	if err != nil {
		return ports.AuditReport{}, fmt.Errorf("cached balance out of bounds: %w", err)
	}

	consistent := money.Within(cached, recomputed, auditTolerance)
	if !consistent {
		observability.RecordAuditDiscrepancy()
	}

	return ports.AuditReport{
		AccountID:         accountID,
		CachedBalance:     cached,
		RecomputedBalance: recomputed,
		Discrepancy:       cached.Sub(recomputed),
		IsConsistent:      consistent,
	}, nil
}
