package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/ledgererrors"
)

// AccountKind distinguishes ordinary user accounts from the system
// accounts that stand in as counterparties in the money-movement flows.
type AccountKind string

const (
	AccountKindSystem AccountKind = "SYSTEM"
	AccountKindUser   AccountKind = "USER"
)

// IsValid reports whether k is one of the two declared kinds.
func (k AccountKind) IsValid() bool {
	return k == AccountKindSystem || k == AccountKindUser
}

// Account is a ledger account: either a USER account reachable by its
// internal id, or a SYSTEM account additionally reachable by a stable
// external id (e.g. "treasury:DIAMOND", "bonus_pool:DIAMOND").
type Account struct {
	id          uuid.UUID
	externalID  *string
	kind        AccountKind
	assetTypeID uuid.UUID
	displayName string
	active      bool
	createdAt   time.Time
	updatedAt   time.Time
}

// NewAccount validates and constructs a new Account. externalID may be
// empty for ordinary user accounts.
func NewAccount(kind AccountKind, assetTypeID uuid.UUID, displayName, externalID string) (*Account, error) {
	if !kind.IsValid() {
		return nil, ledgererrors.New(ledgererrors.KindValidation, "account kind must be SYSTEM or USER", nil)
	}
	if assetTypeID == uuid.Nil {
		return nil, ledgererrors.New(ledgererrors.KindValidation, "account asset type is required", nil)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ledgererrors.New(ledgererrors.KindValidation, "account display name is required", nil)
	}

	var ext *string
	if externalID = strings.TrimSpace(externalID); externalID != "" {
		ext = &externalID
	}

	now := time.Now()
	return &Account{
		id:          uuid.New(),
		externalID:  ext,
		kind:        kind,
		assetTypeID: assetTypeID,
		displayName: displayName,
		active:      true,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructAccount hydrates an Account from stored data.
func ReconstructAccount(
	id uuid.UUID,
	externalID *string,
	kind AccountKind,
	assetTypeID uuid.UUID,
	displayName string,
	active bool,
	createdAt, updatedAt time.Time,
) *Account {
	return &Account{
		id:          id,
		externalID:  externalID,
		kind:        kind,
		assetTypeID: assetTypeID,
		displayName: displayName,
		active:      active,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (a *Account) ID() uuid.UUID          { return a.id }
func (a *Account) ExternalID() *string    { return a.externalID }
func (a *Account) Kind() AccountKind      { return a.kind }
func (a *Account) AssetTypeID() uuid.UUID { return a.assetTypeID }
func (a *Account) DisplayName() string    { return a.displayName }
func (a *Account) Active() bool           { return a.active }
func (a *Account) CreatedAt() time.Time   { return a.createdAt }
func (a *Account) UpdatedAt() time.Time   { return a.updatedAt }

// IsSystem reports whether this account may carry a negative balance.
func (a *Account) IsSystem() bool { return a.kind == AccountKindSystem }

// SameAssetAs reports whether a and other share an asset type.
func (a *Account) SameAssetAs(other *Account) bool {
	return a.assetTypeID == other.assetTypeID
}

func (a *Account) Deactivate() { a.active = false; a.updatedAt = time.Now() }
