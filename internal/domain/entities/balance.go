package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/ledgererrors"
	"github.com/wallethub/ledgercore/internal/domain/money"
)

// Balance is the 1:1 balance-cache row for an account: a signed decimal
// balance plus a monotonically increasing version, mutated only by the
// posting engine under a row lock already held by the caller.
type Balance struct {
	accountID   uuid.UUID
	assetTypeID uuid.UUID
	amount      money.Amount
	version     int64
	updatedAt   time.Time
}

// NewBalance constructs the zero-balance row created alongside a new account.
func NewBalance(accountID, assetTypeID uuid.UUID) *Balance {
	return &Balance{
		accountID:   accountID,
		assetTypeID: assetTypeID,
		amount:      money.Zero(),
		version:     0,
		updatedAt:   time.Now(),
	}
}

// ReconstructBalance hydrates a Balance from stored data.
func ReconstructBalance(accountID, assetTypeID uuid.UUID, amount money.Amount, version int64, updatedAt time.Time) *Balance {
	return &Balance{accountID: accountID, assetTypeID: assetTypeID, amount: amount, version: version, updatedAt: updatedAt}
}

func (b *Balance) AccountID() uuid.UUID     { return b.accountID }
func (b *Balance) AssetTypeID() uuid.UUID   { return b.assetTypeID }
func (b *Balance) Amount() money.Amount     { return b.amount }
func (b *Balance) Version() int64           { return b.version }
func (b *Balance) UpdatedAt() time.Time     { return b.updatedAt }

// ApplyDelta returns the balance that would result from adding delta
// (positive = credit/arrival, negative = debit/departure), enforcing the
// non-negative-balance policy when allowNegative is false. It does not
// mutate the receiver — callers persist the returned value and call
// Advance once the write is known to succeed.
func (b *Balance) ApplyDelta(delta money.Amount, allowNegative bool) (money.Amount, error) {
	next := b.amount.Add(delta)
	if !allowNegative && next.IsNegative() {
		return money.Amount{}, ledgererrors.New(ledgererrors.KindInsufficientBalance, "account balance would go negative", nil)
	}
	return next, nil
}

// Advance bumps the row to a new amount and version, as the posting
// engine does after a successful append.
func (b *Balance) Advance(newAmount money.Amount) {
	b.amount = newAmount
	b.version++
	b.updatedAt = time.Now()
}
