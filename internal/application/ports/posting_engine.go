package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/domain/money"
)

// PostingPlan is the posting engine's input: a debit/credit account pair
// already locked for the enclosing session, a magnitude, and the asset
// type both accounts must share.
type PostingPlan struct {
	TransactionID uuid.UUID
	Category      entities.Category
	AssetTypeID   uuid.UUID
	Magnitude     money.Amount
	Debit         entities.LockedAccount
	Credit        entities.LockedAccount
}

// PostingResult carries the balances immediately after the posting, as
// reported to flow handlers and the response body.
type PostingResult struct {
	DebitBalanceAfter  money.Amount
	CreditBalanceAfter money.Amount
}

// PostingEngine implements the double-entry invariant: given a debit
// account, a credit account, an asset, and a positive magnitude, it
// appends two journal entries, updates both cached balances, and
// enforces the non-negative-balance policy for USER accounts.
type PostingEngine interface {
	Post(ctx context.Context, plan PostingPlan) (PostingResult, error)
}
