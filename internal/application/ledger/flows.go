package ledger

import (
	"context"

	"github.com/wallethub/ledgercore/internal/domain/entities"
)

// TopUp is the purchased-credit flow: the asset's treasury system
// account debits, the target user account credits.
func (s *Service) TopUp(ctx context.Context, req FlowRequest) (FlowResponse, error) {
	return s.runFlow(ctx, req, flowSpec{
		category:           entities.CategoryTopUp,
		counterpartyRole:   "treasury",
		externalIDTemplate: s.cfg.TreasuryExternalIDTemplate,
		userIsDebitAccount: false,
	})
}

// Bonus is the gratis-credit flow: the asset's bonus-pool system account
// debits, the target user account credits.
func (s *Service) Bonus(ctx context.Context, req FlowRequest) (FlowResponse, error) {
	return s.runFlow(ctx, req, flowSpec{
		category:           entities.CategoryBonus,
		counterpartyRole:   "bonus_pool",
		externalIDTemplate: s.cfg.BonusPoolExternalIDTemplate,
		userIsDebitAccount: false,
	})
}

// Spend is the debit-to-revenue flow: the target user account debits,
// the asset's revenue system account credits.
func (s *Service) Spend(ctx context.Context, req FlowRequest) (FlowResponse, error) {
	return s.runFlow(ctx, req, flowSpec{
		category:           entities.CategorySpend,
		counterpartyRole:   "revenue",
		externalIDTemplate: s.cfg.RevenueExternalIDTemplate,
		userIsDebitAccount: true,
	})
}
