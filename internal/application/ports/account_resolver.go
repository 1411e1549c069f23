package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/entities"
)

// AccountResolver looks accounts up and acquires row locks on their
// balance-cache rows in a deterministic order.
type AccountResolver interface {
	// ResolveByExternalID finds a well-known system account by its stable
	// external id, without taking a lock. Returns nil, nil if absent or
	// inactive.
	ResolveByExternalID(ctx context.Context, externalID string) (*entities.Account, error)

	// LockAccounts deduplicates ids, sorts them into canonical ascending
	// order, and acquires an exclusive row lock on each corresponding
	// balance-cache row in that order within the caller's session.
	// Inactive or missing accounts are simply absent from the result —
	// callers detect "not found" by the id's absence from the result,
	// not by an error.
	LockAccounts(ctx context.Context, ids []uuid.UUID) ([]entities.LockedAccount, error)
}
