// Package observability wires the ledger's metrics and tracing, kept
// deliberately thin: it instruments the session/posting/idempotency
// path with Prometheus and exports spans over OTLP/HTTP, mirroring the
// style the façade already uses for its own HTTP-level metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostingsTotal counts posting attempts by flow type and outcome.
	PostingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgercore",
			Subsystem: "posting",
			Name:      "total",
			Help:      "Total number of ledger postings attempted",
		},
		[]string{"category", "outcome"}, // outcome: committed, failed
	)

	// SessionRetriesTotal counts serializable-session retries, broken out
	// by the error class that triggered the retry.
	SessionRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgercore",
			Subsystem: "session",
			Name:      "retries_total",
			Help:      "Total number of serializable session retries",
		},
		[]string{"reason"}, // serialization_failure, deadlock_detected, unknown
	)

	// SessionDuration measures wall-clock time spent inside
	// RunSerializable, including any retries. It carries no labels: the
	// session runner itself is domain-agnostic, so per-flow breakdowns
	// come from PostingsTotal instead.
	SessionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ledgercore",
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Serializable session duration in seconds, including retries",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// LockWaitDuration measures time spent acquiring account row locks
	// inside AccountResolver.LockAccounts.
	LockWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ledgercore",
			Subsystem: "session",
			Name:      "lock_wait_seconds",
			Help:      "Time spent acquiring FOR UPDATE row locks",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// IdempotencyHitsTotal counts idempotency-key lookups by whether a
	// live prior record was found.
	IdempotencyHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgercore",
			Subsystem: "idempotency",
			Name:      "lookups_total",
			Help:      "Total idempotency key lookups",
		},
		[]string{"result"}, // hit, miss
	)

	// AuditDiscrepanciesTotal counts audit runs that found the cached
	// balance out of tolerance with the recomputed journal sum.
	AuditDiscrepanciesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledgercore",
			Subsystem: "audit",
			Name:      "discrepancies_total",
			Help:      "Total audit runs that found a balance discrepancy",
		},
	)

	// OutboxPendingGauge is set by the dispatcher on each poll to the
	// number of PENDING rows it claimed, which is at most one batch.
	OutboxPendingGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledgercore",
			Subsystem: "outbox",
			Name:      "pending",
			Help:      "Number of PENDING outbox rows observed on the last poll",
		},
	)
)

// RecordPosting records a posting attempt's outcome.
func RecordPosting(category, outcome string) {
	PostingsTotal.WithLabelValues(category, outcome).Inc()
}

// RecordSessionRetry records one RunSerializable retry.
func RecordSessionRetry(reason string) {
	SessionRetriesTotal.WithLabelValues(reason).Inc()
}

// ObserveSessionDuration records how long a (possibly retried) session took.
func ObserveSessionDuration(d time.Duration) {
	SessionDuration.Observe(d.Seconds())
}

// ObserveLockWait records how long LockAccounts spent acquiring row locks.
func ObserveLockWait(d time.Duration) {
	LockWaitDuration.Observe(d.Seconds())
}

// RecordIdempotencyLookup records whether an idempotency key lookup hit
// a live prior record.
func RecordIdempotencyLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	IdempotencyHitsTotal.WithLabelValues(result).Inc()
}

// RecordAuditDiscrepancy records one audit run that found the cached
// balance inconsistent with the recomputed journal sum.
func RecordAuditDiscrepancy() {
	AuditDiscrepanciesTotal.Inc()
}
