package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/domain/money"
)

// BalanceSnapshot is the read-only view of an account's current cached
// balance, joined with its asset type's display code.
type BalanceSnapshot struct {
	AccountID     uuid.UUID
	AssetTypeCode string
	Amount        money.Amount
	Version       int64
	UpdatedAt     time.Time
}

// HistoryFilter narrows a history query to a category, with pagination
// bounds already validated by the caller (1<=Limit<=100, Offset>=0).
type HistoryFilter struct {
	Category *entities.Category
	Limit    int
	Offset   int
}

// HistoryEntry is one journal line as reported to a caller: Amount is
// already user-facing (the negation of the stored, debit-positive value).
type HistoryEntry struct {
	JournalEntryID uuid.UUID
	TransactionID  uuid.UUID
	Category       entities.Category
	Reference      string
	Description    string
	Amount         money.Amount
	BalanceAfter   money.Amount
	CreatedAt      time.Time
}

// HistoryPage is a page of HistoryEntry plus the total matching count,
// independent of Limit/Offset.
type HistoryPage struct {
	Entries []HistoryEntry
	Total   int
}

// AuditReport compares the cached balance against a full journal
// recomputation for one account.
type AuditReport struct {
	AccountID         uuid.UUID
	CachedBalance     money.Amount
	RecomputedBalance money.Amount
	Discrepancy       money.Amount
	IsConsistent      bool
}

// QuerySurface is the read-only side of the ledger core: balance lookup,
// paginated history, and the audit routine. No operation here takes a
// write lock; all may observe any consistent committed snapshot.
type QuerySurface interface {
	Balance(ctx context.Context, accountID uuid.UUID) (BalanceSnapshot, error)
	History(ctx context.Context, accountID uuid.UUID, filter HistoryFilter) (HistoryPage, error)
	Audit(ctx context.Context, accountID uuid.UUID) (AuditReport, error)
}
