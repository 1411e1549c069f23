package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/money"
)

// JournalEntry is one half of a double-entry posting: a signed amount
// against a single account, plus the as-of balance snapshot immediately
// after it was appended. Appended once; never modified.
type JournalEntry struct {
	id            uuid.UUID
	transactionID uuid.UUID
	accountID     uuid.UUID
	assetTypeID   uuid.UUID
	amount        money.Amount
	balanceAfter  money.Amount
	createdAt     time.Time
}

// NewJournalEntry constructs a journal entry. amount is signed: positive
// for a debit (value leaves accountID), negative for a credit (value
// arrives). Callers are the posting engine only.
func NewJournalEntry(transactionID, accountID, assetTypeID uuid.UUID, amount, balanceAfter money.Amount) *JournalEntry {
	return &JournalEntry{
		id:            uuid.New(),
		transactionID: transactionID,
		accountID:     accountID,
		assetTypeID:   assetTypeID,
		amount:        amount,
		balanceAfter:  balanceAfter,
		createdAt:     time.Now(),
	}
}

// ReconstructJournalEntry hydrates a JournalEntry from stored data.
func ReconstructJournalEntry(
	id, transactionID, accountID, assetTypeID uuid.UUID,
	amount, balanceAfter money.Amount,
	createdAt time.Time,
) *JournalEntry {
	return &JournalEntry{
		id:            id,
		transactionID: transactionID,
		accountID:     accountID,
		assetTypeID:   assetTypeID,
		amount:        amount,
		balanceAfter:  balanceAfter,
		createdAt:     createdAt,
	}
}

func (j *JournalEntry) ID() uuid.UUID            { return j.id }
func (j *JournalEntry) TransactionID() uuid.UUID { return j.transactionID }
func (j *JournalEntry) AccountID() uuid.UUID     { return j.accountID }
func (j *JournalEntry) AssetTypeID() uuid.UUID   { return j.assetTypeID }
func (j *JournalEntry) Amount() money.Amount     { return j.amount }
func (j *JournalEntry) BalanceAfter() money.Amount { return j.balanceAfter }
func (j *JournalEntry) CreatedAt() time.Time     { return j.createdAt }

// UserFacingAmount is the negation of the stored amount, so income shows
// positive and outflow negative in the history query surface.
func (j *JournalEntry) UserFacingAmount() money.Amount { return j.amount.Neg() }
