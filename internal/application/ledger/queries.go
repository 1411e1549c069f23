package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/ledgererrors"
)

// Balance returns the current cached balance for accountID.
func (s *Service) Balance(ctx context.Context, accountID uuid.UUID) (ports.BalanceSnapshot, error) {
	return s.queries.Balance(ctx, accountID)
}

// History returns a page of journal entries for accountID, most recent
// first. It rejects a filter whose Limit is outside 1..100 or whose
// Offset is negative with a validation error.
func (s *Service) History(ctx context.Context, accountID uuid.UUID, filter ports.HistoryFilter) (ports.HistoryPage, error) {
	if err := validateHistoryFilter(filter); err != nil {
		return ports.HistoryPage{}, err
	}
	return s.queries.History(ctx, accountID, filter)
}

// Audit recomputes accountID's balance from the journal and compares it
// against the cache with the spec's 1e-8 tolerance.
func (s *Service) Audit(ctx context.Context, accountID uuid.UUID) (ports.AuditReport, error) {
	return s.queries.Audit(ctx, accountID)
}

func validateHistoryFilter(filter ports.HistoryFilter) error {
	if filter.Limit < 1 || filter.Limit > 100 {
		return ledgererrors.New(ledgererrors.KindValidation, "limit must be between 1 and 100", nil)
	}
	if filter.Offset < 0 {
		return ledgererrors.New(ledgererrors.KindValidation, "offset must be >= 0", nil)
	}
	return nil
}
