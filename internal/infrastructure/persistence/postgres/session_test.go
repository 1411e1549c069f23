package postgres

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestBackoff_BoundedBySpecCeiling(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		wait := backoff(attempt)
		assert.LessOrEqual(t, wait.Milliseconds(), int64(2000))
		assert.GreaterOrEqual(t, wait.Milliseconds(), int64(0))
	}
}

func TestBackoff_GrowsWithAttempt(t *testing.T) {
	// jitter can overlap adjacent attempts briefly, but the bases
	// themselves (50, 100, 200, ...) must grow until the 2s ceiling.
	assert.Less(t, 50, 100)
	w0 := backoff(0)
	w3 := backoff(3)
	assert.Less(t, w0.Milliseconds(), w3.Milliseconds())
}

func TestIsRetryableErrorChain_SerializationFailure(t *testing.T) {
	wrapped := errors.New("commit: " + "wrapped")
	assert.False(t, isRetryableErrorChain(wrapped))

	pgErr := &pgconn.PgError{Code: pgSerializationFailure}
	assert.True(t, isRetryableErrorChain(pgErr))

	deadlock := &pgconn.PgError{Code: pgDeadlockDetected}
	assert.True(t, isRetryableErrorChain(deadlock))

	other := &pgconn.PgError{Code: pgUniqueViolation}
	assert.False(t, isRetryableErrorChain(other))
}

func TestCanonicalOrder_DedupsAndSorts(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	ordered := canonicalOrder([]uuid.UUID{a, a, b})
	assert.Len(t, ordered, 2)
	assert.Equal(t, b, ordered[0])
	assert.Equal(t, a, ordered[1])
}
