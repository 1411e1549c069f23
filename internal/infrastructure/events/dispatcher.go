// Package events drains the transactional outbox and fans committed
// postings out to NATS. It is a separate consistency boundary from the
// ledger itself: the outbox write commits atomically with the posting,
// but delivery from here on is at-least-once, and subscribers are
// expected to be idempotent on (aggregate_id, event_type).
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/infrastructure/observability"
)

// Config tunes how aggressively the dispatcher drains the outbox.
type Config struct {
	PollInterval    time.Duration
	BatchSize       int
	SubjectPrefix   string
	CleanupInterval time.Duration
	CleanupAge      time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval:    500 * time.Millisecond,
		BatchSize:       50,
		SubjectPrefix:   "ledgercore.events",
		CleanupInterval: time.Hour,
		CleanupAge:      7 * 24 * time.Hour,
	}
}

// Dispatcher polls the outbox for PENDING rows and publishes each one to
// NATS under a subject derived from its event type. A batch is claimed,
// published and marked PUBLISHED inside one SessionRunner session: if
// the NATS publish for an entry fails, that entry is marked FAILED and
// the rest of the batch still commits, so one bad message never stalls
// the dispatcher.
type Dispatcher struct {
	sessions ports.SessionRunner
	store    ports.OutboxStore
	nc       *nats.Conn
	cfg      Config
	log      *slog.Logger
}

func NewDispatcher(sessions ports.SessionRunner, store ports.OutboxStore, nc *nats.Conn, cfg Config, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{sessions: sessions, store: store, nc: nc, cfg: cfg, log: log}
}

// Run polls until ctx is canceled. It never returns an error: polling
// failures are logged and retried on the next tick, since a down NATS
// connection or a momentarily unreachable database are not reasons to
// stop draining the outbox once they recover.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(d.cfg.CleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if processed, err := d.RunOnce(ctx); err != nil {
				d.log.ErrorContext(ctx, "outbox dispatch batch failed", "error", err)
			} else if processed > 0 {
				d.log.DebugContext(ctx, "dispatched outbox batch", "count", processed)
			}
		case <-cleanupTicker.C:
			cutoff := time.Now().Add(-d.cfg.CleanupAge)
			deleted, err := d.store.CleanupPublished(ctx, cutoff)
			if err != nil {
				d.log.WarnContext(ctx, "outbox cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				d.log.InfoContext(ctx, "cleaned up published outbox entries", "count", deleted)
			}
		}
	}
}

// RunOnce claims and dispatches a single batch, returning how many
// entries it attempted (published or failed, not pending retries).
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	processed := 0
	err := d.sessions.RunSerializable(ctx, func(ctx context.Context) error {
		entries, err := d.store.FindUnpublished(ctx, d.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("claim outbox batch: %w", err)
		}
		observability.OutboxPendingGauge.Set(float64(len(entries)))
		for _, entry := range entries {
			processed++
			subject := d.subjectFor(entry)
			if pubErr := d.nc.Publish(subject, entry.Payload); pubErr != nil {
				if markErr := d.store.MarkFailed(ctx, entry.ID, pubErr.Error()); markErr != nil {
					return fmt.Errorf("mark outbox entry %s failed: %w", entry.ID, markErr)
				}
				d.log.WarnContext(ctx, "outbox entry publish failed", "id", entry.ID, "subject", subject, "error", pubErr)
				continue
			}
			if markErr := d.store.MarkPublished(ctx, entry.ID); markErr != nil {
				return fmt.Errorf("mark outbox entry %s published: %w", entry.ID, markErr)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return processed, nil
}

func (d *Dispatcher) subjectFor(entry ports.OutboxEntry) string {
	return d.cfg.SubjectPrefix + "." + entry.EventType
}
