package ports

import (
	"context"

	"github.com/google/uuid"
)

// CacheInvalidator evicts any cached read-side state for an account. The
// caller must invoke it only after the transaction that mutated the
// account has committed -- invalidating before commit lets a concurrent
// reader repopulate the cache with the pre-commit value, which then
// survives until the next invalidation or TTL expiry.
type CacheInvalidator interface {
	InvalidateAccount(ctx context.Context, accountID uuid.UUID) error
}
