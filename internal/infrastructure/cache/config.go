// Package cache implements a best-effort Redis read-through cache in
// front of the ledger's query surface. It is never authoritative: the
// Postgres balance row always wins, and every method here degrades to
// the wrapped query surface on any Redis error rather than failing the
// read.
package cache

import "time"

// Config tunes how long a cached read is trusted before the next call
// falls through to the wrapped query surface again.
type Config struct {
	BalanceTTL time.Duration
	HistoryTTL time.Duration
}

// DefaultConfig favors a short TTL: the cache exists to absorb bursts of
// repeated reads for the same account, not to serve minutes-old balances.
func DefaultConfig() Config {
	return Config{
		BalanceTTL: 5 * time.Second,
		HistoryTTL: 15 * time.Second,
	}
}
