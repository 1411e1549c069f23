package ports

import (
	"context"

	"github.com/wallethub/ledgercore/internal/domain/entities"
)

// IdempotencyStore is a keyed cache of prior responses, persisted in the
// same transactional store as the effects it represents so that a write
// to it commits atomically with the posting it follows.
type IdempotencyStore interface {
	// Lookup returns the live record for reference, or nil, nil if
	// absent or expired. Expired records are not deleted here; they are
	// reaped out-of-band.
	Lookup(ctx context.Context, reference string) (*entities.IdempotencyRecord, error)

	// Store inserts record. On a reference collision it does nothing —
	// first writer wins — rather than returning an error, since under
	// serializable isolation a genuine race means one of the competing
	// transactions already rolled back.
	Store(ctx context.Context, record *entities.IdempotencyRecord) error
}
