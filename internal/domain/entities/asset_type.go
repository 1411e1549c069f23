// Package entities holds the ledger's core domain objects: asset types,
// accounts, balance cache rows, transactions, journal entries, and
// idempotency records. Entities carry private fields and are constructed
// through validating factories or Reconstruct* hydrators, following the
// teacher's entity style.
package entities

import (
	"strings"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/ledgererrors"
)

// AssetType is a unit of value the ledger tracks (a virtual currency).
// Asset types are seeded administratively and never deleted.
type AssetType struct {
	id          uuid.UUID
	code        string
	displayName string
	active      bool
}

// NewAssetType validates and constructs a new AssetType.
func NewAssetType(code, displayName string) (*AssetType, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ledgererrors.New(ledgererrors.KindValidation, "asset type code is required", nil)
	}
	if displayName == "" {
		return nil, ledgererrors.New(ledgererrors.KindValidation, "asset type display name is required", nil)
	}
	return &AssetType{
		id:          uuid.New(),
		code:        code,
		displayName: displayName,
		active:      true,
	}, nil
}

// ReconstructAssetType hydrates an AssetType from stored data.
func ReconstructAssetType(id uuid.UUID, code, displayName string, active bool) *AssetType {
	return &AssetType{id: id, code: code, displayName: displayName, active: active}
}

func (a *AssetType) ID() uuid.UUID        { return a.id }
func (a *AssetType) Code() string         { return a.code }
func (a *AssetType) DisplayName() string  { return a.displayName }
func (a *AssetType) Active() bool         { return a.active }
func (a *AssetType) Deactivate()          { a.active = false }
