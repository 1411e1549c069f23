package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/infrastructure/observability"
)

// Compile-time check.
var _ ports.SessionRunner = (*SessionRunner)(nil)

// SessionRunner executes fn inside a SERIALIZABLE transaction, retrying
// the whole transaction (not individual statements) when Postgres
// detects a conflict it can't resolve without a rollback. This mirrors
// the teacher's UnitOfWork, generalized to SERIALIZABLE isolation and
// given the backoff ExecuteWithRetry never had.
type SessionRunner struct {
	pool       *pgxpool.Pool
	maxRetries int
	log        *slog.Logger
}

// NewSessionRunner builds a SessionRunner with maxRetries attempts
// beyond the first (so maxRetries=3 means up to 4 tries total).
func NewSessionRunner(pool *pgxpool.Pool, maxRetries int, log *slog.Logger) *SessionRunner {
	if log == nil {
		log = slog.Default()
	}
	return &SessionRunner{pool: pool, maxRetries: maxRetries, log: log}
}

// RunSerializable implements ports.SessionRunner. If ctx already
// carries a transaction (a nested call from within another session),
// fn runs directly against it without opening a new one or retrying --
// only the outermost call owns the retry loop.
func (r *SessionRunner) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if hasTx(ctx) {
		return fn(ctx)
	}

	start := time.Now()
	defer func() { observability.ObserveSessionDuration(time.Since(start)) }()

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			observability.RecordSessionRetry(retryReason(lastErr))
			wait := backoff(attempt)
			r.log.WarnContext(ctx, "retrying serializable session",
				"attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := r.once(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryableErrorChain(err) {
			return err
		}
	}

	r.log.WarnContext(ctx, "serializable session retries exhausted",
		"retries", r.maxRetries, "error", lastErr)
	return fmt.Errorf("serializable session exhausted %d retries: %w", r.maxRetries, lastErr)
}

// retryReason labels a retry for the SessionRetriesTotal metric.
func retryReason(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure:
			return "serialization_failure"
		case pgDeadlockDetected:
			return "deadlock_detected"
		}
	}
	return "unknown"
}

// once runs fn inside a single SERIALIZABLE transaction attempt.
func (r *SessionRunner) once(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin serializable transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	txCtx := injectTx(ctx, tx)
	if fnErr := fn(txCtx); fnErr != nil {
		_ = tx.Rollback(ctx)
		return fnErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return commitErr
	}
	return nil
}

// backoff implements the spec's retry schedule: min(50*2^attempt +
// jitter, 2000) ms.
func backoff(attempt int) time.Duration {
	base := 50 * (1 << uint(attempt))
	if base > 2000 {
		base = 2000
	}
	jitter := rand.Intn(25)
	ms := base + jitter
	if ms > 2000 {
		ms = 2000
	}
	return time.Duration(ms) * time.Millisecond
}

// isRetryableErrorChain walks a wrapped error chain looking for a
// *pgconn.PgError, since fn along the way typically wraps driver
// errors with fmt.Errorf("...: %w", err).
func isRetryableErrorChain(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isRetryableError(pgErr)
	}
	return false
}
