package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordPosting_IncrementsLabeledCounter(t *testing.T) {
	before := testutil.ToFloat64(PostingsTotal.WithLabelValues("TOPUP", "committed"))
	RecordPosting("TOPUP", "committed")
	after := testutil.ToFloat64(PostingsTotal.WithLabelValues("TOPUP", "committed"))
	assert.Equal(t, before+1, after)
}

func TestRecordIdempotencyLookup_SeparatesHitAndMiss(t *testing.T) {
	beforeHit := testutil.ToFloat64(IdempotencyHitsTotal.WithLabelValues("hit"))
	beforeMiss := testutil.ToFloat64(IdempotencyHitsTotal.WithLabelValues("miss"))

	RecordIdempotencyLookup(true)
	RecordIdempotencyLookup(false)

	assert.Equal(t, beforeHit+1, testutil.ToFloat64(IdempotencyHitsTotal.WithLabelValues("hit")))
	assert.Equal(t, beforeMiss+1, testutil.ToFloat64(IdempotencyHitsTotal.WithLabelValues("miss")))
}

func TestObserveSessionDuration_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		ObserveSessionDuration(25 * time.Millisecond)
		ObserveLockWait(5 * time.Millisecond)
	})
}

func TestRecordAuditDiscrepancy_Increments(t *testing.T) {
	before := testutil.ToFloat64(AuditDiscrepanciesTotal)
	RecordAuditDiscrepancy()
	after := testutil.ToFloat64(AuditDiscrepanciesTotal)
	assert.Equal(t, before+1, after)
}
