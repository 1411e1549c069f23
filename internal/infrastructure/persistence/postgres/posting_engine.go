package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/infrastructure/observability"
)

var _ ports.PostingEngine = (*PostingEngine)(nil)

// PostingEngine appends the two journal entries of a posting and writes
// both updated balances, all against rows the caller already locked via
// AccountResolver.LockAccounts in the same session -- this type never
// takes a lock itself, it only writes what the lock already protects.
type PostingEngine struct {
	pool *pgxpool.Pool
}

func NewPostingEngine(pool *pgxpool.Pool) *PostingEngine {
	return &PostingEngine{pool: pool}
}

func (e *PostingEngine) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return e.pool
}

// Post applies the delta to both locked balances in memory via
// entities.Balance.ApplyDelta (which enforces the non-negative policy
// for USER accounts), appends the two journal rows, and persists the
// two new balance values. It must run inside a session that already
// holds both row locks; it does not itself issue FOR UPDATE.
func (e *PostingEngine) Post(ctx context.Context, plan ports.PostingPlan) (result ports.PostingResult, err error) {
	defer func() {
		outcome := "committed"
		if err != nil {
			outcome = "failed"
		}
		observability.RecordPosting(string(plan.Category), outcome)
	}()

	if !hasTx(ctx) {
		return ports.PostingResult{}, fmt.Errorf("post: must run inside a session")
	}
	q := e.getQuerier(ctx)

	debitAllowNegative := plan.Debit.Account.IsSystem()
	debitAfter, err := plan.Debit.Balance.ApplyDelta(plan.Magnitude.Neg(), debitAllowNegative)
	if err != nil {
		return ports.PostingResult{}, err
	}
	creditAllowNegative := plan.Credit.Account.IsSystem()
	creditAfter, err := plan.Credit.Balance.ApplyDelta(plan.Magnitude, creditAllowNegative)
	if err != nil {
		return ports.PostingResult{}, err
	}

	debitEntry := entities.NewJournalEntry(plan.TransactionID, plan.Debit.Account.ID(), plan.AssetTypeID, plan.Magnitude, debitAfter)
	creditEntry := entities.NewJournalEntry(plan.TransactionID, plan.Credit.Account.ID(), plan.AssetTypeID, plan.Magnitude.Neg(), creditAfter)

	const insertJournal = `
		INSERT INTO journal_entries (id, transaction_id, account_id, asset_type_id, amount, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := q.Exec(ctx, insertJournal,
		debitEntry.ID(), debitEntry.TransactionID(), debitEntry.AccountID(), debitEntry.AssetTypeID(),
		debitEntry.Amount().Decimal(), debitEntry.BalanceAfter().Decimal(), debitEntry.CreatedAt(),
	); err != nil {
		return ports.PostingResult{}, fmt.Errorf("insert debit journal entry: %w", err)
	}
	if _, err := q.Exec(ctx, insertJournal,
		creditEntry.ID(), creditEntry.TransactionID(), creditEntry.AccountID(), creditEntry.AssetTypeID(),
		creditEntry.Amount().Decimal(), creditEntry.BalanceAfter().Decimal(), creditEntry.CreatedAt(),
	); err != nil {
		return ports.PostingResult{}, fmt.Errorf("insert credit journal entry: %w", err)
	}

	const updateBalance = `UPDATE balances SET amount = $2, version = version + 1, updated_at = $3 WHERE account_id = $1`
	if _, err := q.Exec(ctx, updateBalance, plan.Debit.Account.ID(), debitAfter.Decimal(), debitEntry.CreatedAt()); err != nil {
		return ports.PostingResult{}, fmt.Errorf("update debit balance: %w", err)
	}
	if _, err := q.Exec(ctx, updateBalance, plan.Credit.Account.ID(), creditAfter.Decimal(), creditEntry.CreatedAt()); err != nil {
		return ports.PostingResult{}, fmt.Errorf("update credit balance: %w", err)
	}

	plan.Debit.Balance.Advance(debitAfter)
	plan.Credit.Balance.Advance(creditAfter)

	return ports.PostingResult{DebitBalanceAfter: debitAfter, CreditBalanceAfter: creditAfter}, nil
}
