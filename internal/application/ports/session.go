// Package ports defines the interfaces the application layer depends on;
// infrastructure provides the implementations (hexagonal ports & adapters).
package ports

import "context"

// SessionRunner is the persistence gateway's scoped transactional session
// primitive. RunSerializable opens a serializable transaction, runs fn,
// commits on a nil return and rolls back otherwise, retrying fn itself
// (not just the commit) on a transient serialization conflict up to the
// configured retry count with exponential backoff.
//
// fn must be deterministic with respect to its inputs: any identifier or
// timestamp it needs must be generated inside fn so a retried attempt is
// self-consistent. The idempotency key is the one exception — it is
// supplied by the caller before RunSerializable is invoked and stays
// stable across attempts.
type SessionRunner interface {
	RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}
