package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/money"
)

var (
	_ ports.QuerySurface     = (*QuerySurface)(nil)
	_ ports.CacheInvalidator = (*QuerySurface)(nil)
)

// QuerySurface wraps a ports.QuerySurface with a Redis read-through cache
// for Balance; History is passed through uncached. Audit always recomputes from the wrapped
// surface directly -- caching the number the audit routine is meant to
// double-check would defeat its purpose.
type QuerySurface struct {
	next   ports.QuerySurface
	client *redis.Client
	cfg    Config
	log    *slog.Logger
}

func NewQuerySurface(next ports.QuerySurface, client *redis.Client, cfg Config, log *slog.Logger) *QuerySurface {
	if log == nil {
		log = slog.Default()
	}
	return &QuerySurface{next: next, client: client, cfg: cfg, log: log}
}

// balanceSnapshotDTO mirrors ports.BalanceSnapshot with a wire-friendly
// Amount; money.Amount itself has no exported fields to marshal.
type balanceSnapshotDTO struct {
	AccountID     uuid.UUID `json:"accountId"`
	AssetTypeCode string    `json:"assetTypeCode"`
	Amount        string    `json:"amount"`
	Version       int64     `json:"version"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toBalanceDTO(snap ports.BalanceSnapshot) balanceSnapshotDTO {
	return balanceSnapshotDTO{
		AccountID:     snap.AccountID,
		AssetTypeCode: snap.AssetTypeCode,
		Amount:        snap.Amount.String(),
		Version:       snap.Version,
		UpdatedAt:     snap.UpdatedAt,
	}
}

func (d balanceSnapshotDTO) toSnapshot() (ports.BalanceSnapshot, error) {
	dec, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return ports.BalanceSnapshot{}, err
	}
	amount, err := money.NewSigned(dec)
	if err != nil {
		return ports.BalanceSnapshot{}, err
	}
	return ports.BalanceSnapshot{
		AccountID:     d.AccountID,
		AssetTypeCode: d.AssetTypeCode,
		Amount:        amount,
		Version:       d.Version,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

func balanceKey(accountID uuid.UUID) string {
	return "ledgercore:balance:" + accountID.String()
}

func (s *QuerySurface) Balance(ctx context.Context, accountID uuid.UUID) (ports.BalanceSnapshot, error) {
	key := balanceKey(accountID)
	if s.client != nil {
		raw, err := s.client.Get(ctx, key).Result()
		if err == nil {
			var dto balanceSnapshotDTO
			if jsonErr := json.Unmarshal([]byte(raw), &dto); jsonErr == nil {
				if snap, convErr := dto.toSnapshot(); convErr == nil {
					return snap, nil
				}
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "balance cache read failed", "error", err, "accountId", accountID)
		}
	}

	snap, err := s.next.Balance(ctx, accountID)
	if err != nil {
		return snap, err
	}

	if s.client != nil {
		encoded, marshalErr := json.Marshal(toBalanceDTO(snap))
		if marshalErr == nil {
			if setErr := s.client.Set(ctx, key, encoded, s.cfg.BalanceTTL).Err(); setErr != nil {
				s.log.WarnContext(ctx, "balance cache write failed", "error", setErr, "accountId", accountID)
			}
		}
	}
	return snap, nil
}

// History is passed straight through. Paginated, filterable result sets
// make poor cache entries (the key space is effectively unbounded) and
// history reads are not the latency-sensitive hot path balance reads are.
func (s *QuerySurface) History(ctx context.Context, accountID uuid.UUID, filter ports.HistoryFilter) (ports.HistoryPage, error) {
	return s.next.History(ctx, accountID, filter)
}

func (s *QuerySurface) Audit(ctx context.Context, accountID uuid.UUID) (ports.AuditReport, error) {
	return s.next.Audit(ctx, accountID)
}

// InvalidateAccount evicts the cached balance for an account. Called
// after every committed posting touching that account. A Redis failure is
// returned to the caller; the ledger service logs it and carries on,
// since the TTL bounds staleness regardless.
func (s *QuerySurface) InvalidateAccount(ctx context.Context, accountID uuid.UUID) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Del(ctx, balanceKey(accountID)).Err(); err != nil {
		return fmt.Errorf("invalidate balance cache for %s: %w", accountID, err)
	}
	return nil
}
