package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/entities"
)

// AssetTypeRepository is the administrative seeding surface for asset
// types (spec: "seeded; never deleted").
type AssetTypeRepository interface {
	Create(ctx context.Context, assetType *entities.AssetType) error
	FindByCode(ctx context.Context, code string) (*entities.AssetType, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entities.AssetType, error)
}

// AccountRepository is the administrative CRUD surface for accounts
// ("created administratively; soft-deactivated"). Balance-affecting
// operations never go through this interface — only AccountResolver and
// PostingEngine touch the balance-cache row.
type AccountRepository interface {
	Create(ctx context.Context, account *entities.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Account, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// TransactionRepository appends the single transaction row a flow
// handler writes per successful request.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entities.Transaction) error
}
