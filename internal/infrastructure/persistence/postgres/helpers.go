package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// txKey stores the in-flight transaction in a request's context so
// repository calls nested inside a session run against it instead of
// opening a second connection.
type txKey struct{}

func injectTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func extractTx(ctx context.Context) pgx.Tx {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return nil
	}
	return tx
}

// querier abstracts over *pgxpool.Pool and pgx.Tx so a repository can
// run unchanged whether or not it's inside a session.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"

	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

func isPgError(err error, code string) bool {
	if err == nil {
		return false
	}
	pgErr, ok := err.(*pgconn.PgError)
	if !ok {
		return false
	}
	return pgErr.Code == code
}

func isUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	pgErr, ok := err.(*pgconn.PgError)
	if !ok || pgErr.Code != pgUniqueViolation {
		return false
	}
	if constraintName != "" {
		return strings.Contains(pgErr.ConstraintName, constraintName)
	}
	return true
}

func isForeignKeyViolation(err error) bool { return isPgError(err, pgForeignKeyViolation) }
func isCheckViolation(err error) bool      { return isPgError(err, pgCheckViolation) }
func isNotNullViolation(err error) bool    { return isPgError(err, pgNotNullViolation) }

// isSerializationFailure reports whether err is one of the two
// SQLSTATEs SERIALIZABLE isolation can raise under contention: a
// serialization failure proper, or a detected deadlock from the lock
// order a session took.
func isSerializationFailure(err error) bool {
	return isPgError(err, pgSerializationFailure) || isPgError(err, pgDeadlockDetected)
}

// isRetryableError reports whether a failed session is worth retrying
// whole: serialization conflicts, or a connection-class error (SQLSTATE
// class 08) that likely reflects a transient pool hiccup.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if isSerializationFailure(err) {
		return true
	}
	pgErr, ok := err.(*pgconn.PgError)
	if ok {
		return strings.HasPrefix(pgErr.Code, "08")
	}
	return false
}
