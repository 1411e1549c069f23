package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/domain/ledgererrors"
	"github.com/wallethub/ledgercore/internal/domain/money"
)

// FlowRequest is the caller's input to any of the three money-movement
// flows: the target user account, a positive magnitude, the caller's
// idempotency reference, and optional free-form detail.
type FlowRequest struct {
	AccountID   uuid.UUID
	Magnitude   money.Amount
	Reference   string
	Description string
	Metadata    map[string]interface{}
}

// FlowResponse is the flow's result, shaped for the façade's response
// body (spec §6).
type FlowResponse struct {
	TransactionID uuid.UUID              `json:"transactionId"`
	ReferenceID   string                  `json:"referenceId"`
	Type          entities.Category       `json:"type"`
	AccountID     uuid.UUID               `json:"accountId"`
	Amount        string                  `json:"amount"`
	BalanceAfter  string                  `json:"balanceAfter"`
	Description   string                  `json:"description,omitempty"`
	CreatedAt     time.Time               `json:"createdAt"`
	Idempotent    bool                    `json:"idempotent,omitempty"`
}

// flowSpec fixes the one axis the three flows differ on: which side of
// the posting the user account sits on, and which system role stands on
// the other side.
type flowSpec struct {
	category            entities.Category
	counterpartyRole    string
	externalIDTemplate  string
	userIsDebitAccount  bool // true for SPEND, false for TOP_UP/BONUS
}

// runFlow implements the uniform 10-step algorithm of spec §4.4.
func (s *Service) runFlow(ctx context.Context, req FlowRequest, spec flowSpec) (FlowResponse, error) {
	if req.AccountID == uuid.Nil {
		return FlowResponse{}, ledgererrors.New(ledgererrors.KindValidation, "accountId is required", nil)
	}

	var resp FlowResponse
	var affectedAccounts []uuid.UUID
	err := s.sessions.RunSerializable(ctx, func(ctx context.Context) error {
		// Step 1: idempotency check, before any lock is taken.
		existing, err := s.idempotency.Lookup(ctx, req.Reference)
		if err != nil {
			return fmt.Errorf("idempotency lookup: %w", err)
		}
		if existing != nil {
			var replay FlowResponse
			if err := json.Unmarshal(existing.ResponseBody(), &replay); err != nil {
				return fmt.Errorf("decode idempotent response: %w", err)
			}
			replay.Idempotent = true
			resp = replay
			s.log.DebugContext(ctx, "idempotent replay", "reference", req.Reference)
			return nil
		}

		// Peek the user account (unlocked) to learn its asset type, so the
		// system counterparty's well-known external id can be derived
		// before the single authoritative lock_accounts call.
		userAccount, err := s.accounts.FindByID(ctx, req.AccountID)
		if err != nil {
			return ledgererrors.New(ledgererrors.KindAccountNotFound, "account not found or inactive", err)
		}
		if userAccount == nil || !userAccount.Active() {
			return ledgererrors.New(ledgererrors.KindAccountNotFound, "account not found or inactive", nil)
		}

		assetType, err := s.assetTypes.FindByID(ctx, userAccount.AssetTypeID())
		if err != nil || assetType == nil {
			return ledgererrors.New(ledgererrors.KindConfiguration, "account references an unknown asset type", err)
		}

		// Step 2: resolve the system counterparty by its well-known external id.
		externalID := fmt.Sprintf(spec.externalIDTemplate, assetType.Code())
		counterparty, err := s.resolver.ResolveByExternalID(ctx, externalID)
		if err != nil {
			return fmt.Errorf("resolve counterparty %q: %w", externalID, err)
		}
		if counterparty == nil {
			return ledgererrors.New(ledgererrors.KindConfiguration,
				fmt.Sprintf("%s system account %q is not configured", spec.counterpartyRole, externalID), nil)
		}

		// Step 3: lock the complete set of participating accounts in one call.
		locked, err := s.resolver.LockAccounts(ctx, []uuid.UUID{req.AccountID, counterparty.ID()})
		if err != nil {
			return fmt.Errorf("lock accounts: %w", err)
		}
		byID := entities.ByID(locked)
		user, ok := byID[req.AccountID]
		if !ok {
			return ledgererrors.New(ledgererrors.KindAccountNotFound, "account not found or inactive", nil)
		}
		counterpartyLocked, ok := byID[counterparty.ID()]
		if !ok {
			return ledgererrors.New(ledgererrors.KindConfiguration,
				fmt.Sprintf("system account %q is not configured", externalID), nil)
		}

		// Step 4: asset homogeneity.
		if !user.Account.SameAssetAs(counterpartyLocked.Account) {
			return ledgererrors.New(ledgererrors.KindAssetMismatch, "accounts do not share an asset type", nil)
		}

		// Step 5: early insufficient-balance check for debit-to-revenue.
		if spec.userIsDebitAccount && user.Balance.Amount().LessThan(req.Magnitude) {
			return ledgererrors.New(ledgererrors.KindInsufficientBalance, "insufficient balance", nil)
		}

		// Step 6: insert the transaction row.
		tx, err := entities.NewTransaction(spec.category, req.Reference, req.Description, req.Metadata)
		if err != nil {
			return err
		}
		if err := s.transactions.Create(ctx, tx); err != nil {
			return err
		}

		// Step 7: invoke the posting engine with the correct debit/credit assignment.
		plan := ports.PostingPlan{
			TransactionID: tx.ID(),
			Category:      spec.category,
			AssetTypeID:   assetType.ID(),
			Magnitude:     req.Magnitude,
		}
		if spec.userIsDebitAccount {
			plan.Debit, plan.Credit = user, counterpartyLocked
		} else {
			plan.Debit, plan.Credit = counterpartyLocked, user
		}
		result, err := s.postings.Post(ctx, plan)
		if err != nil {
			return err
		}
		affectedAccounts = []uuid.UUID{user.Account.ID(), counterpartyLocked.Account.ID()}

		var userBalanceAfter money.Amount
		if spec.userIsDebitAccount {
			userBalanceAfter = result.DebitBalanceAfter
		} else {
			userBalanceAfter = result.CreditBalanceAfter
		}

		// Step 8: build the response.
		resp = FlowResponse{
			TransactionID: tx.ID(),
			ReferenceID:   tx.Reference(),
			Type:          spec.category,
			AccountID:     req.AccountID,
			Amount:        req.Magnitude.String(),
			BalanceAfter:  userBalanceAfter.String(),
			Description:   tx.Description(),
			CreatedAt:     tx.CreatedAt(),
		}

		// Step 9: record the response for idempotency; first writer wins.
		body, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("encode response for idempotency record: %w", err)
		}
		record := entities.NewIdempotencyRecordWithRetention(req.Reference, 201, body, s.cfg.IdempotencyRetention)
		if err := s.idempotency.Store(ctx, record); err != nil {
			return fmt.Errorf("store idempotency record: %w", err)
		}

		if s.events != nil {
			event := ports.PostingCommittedEvent{
				TransactionID: tx.ID(),
				Category:      string(spec.category),
				AccountID:     req.AccountID,
				Reference:     tx.Reference(),
				Amount:        req.Magnitude.String(),
				OccurredAt:    tx.CreatedAt(),
			}
			if err := s.events.Publish(ctx, event); err != nil {
				s.log.WarnContext(ctx, "posting committed event publish failed", "error", err, "transactionId", tx.ID())
			}
		}

		// Step 10 (commit) is performed by the session wrapper on return.
		return nil
	})
	if err != nil {
		return FlowResponse{}, err
	}

	// Invalidate the cache only now that the posting's transaction has
	// actually committed -- doing this inside the session above would let
	// a concurrent reader repopulate the cache with the pre-commit value
	// in the gap before commit, where it would then survive until the
	// next invalidation or TTL expiry.
	if s.cache != nil && !resp.Idempotent {
		for _, accountID := range affectedAccounts {
			if ierr := s.cache.InvalidateAccount(ctx, accountID); ierr != nil {
				s.log.WarnContext(ctx, "cache invalidation after posting commit failed", "error", ierr, "accountId", accountID)
			}
		}
	}

	return resp, nil
}
