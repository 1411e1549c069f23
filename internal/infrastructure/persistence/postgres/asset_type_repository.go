package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/entities"
)

var _ ports.AssetTypeRepository = (*AssetTypeRepository)(nil)

// AssetTypeRepository is the administrative seeding surface for asset
// types: created once at setup time, read frequently, never deleted.
type AssetTypeRepository struct {
	pool *pgxpool.Pool
}

func NewAssetTypeRepository(pool *pgxpool.Pool) *AssetTypeRepository {
	return &AssetTypeRepository{pool: pool}
}

func (r *AssetTypeRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *AssetTypeRepository) Create(ctx context.Context, assetType *entities.AssetType) error {
	q := r.getQuerier(ctx)
	const query = `
		INSERT INTO asset_types (id, code, display_name, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := q.Exec(ctx, query, assetType.ID(), assetType.Code(), assetType.DisplayName(), assetType.Active(), time.Now())
	if err != nil {
		if isUniqueViolation(err, "asset_types_code_unique") {
			return fmt.Errorf("asset type %q already exists: %w", assetType.Code(), err)
		}
		return fmt.Errorf("insert asset type: %w", err)
	}
	return nil
}

func (r *AssetTypeRepository) FindByCode(ctx context.Context, code string) (*entities.AssetType, error) {
	q := r.getQuerier(ctx)
	const query = `
		SELECT id, code, display_name, active
		FROM asset_types
		WHERE code = $1
	`
	return scanAssetType(q.QueryRow(ctx, query, code))
}

func (r *AssetTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.AssetType, error) {
	q := r.getQuerier(ctx)
	const query = `
		SELECT id, code, display_name, active
		FROM asset_types
		WHERE id = $1
	`
	return scanAssetType(q.QueryRow(ctx, query, id))
}

func scanAssetType(row pgx.Row) (*entities.AssetType, error) {
	var (
		id                uuid.UUID
		code, displayName string
		active            bool
	)
	err := row.Scan(&id, &code, &displayName, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan asset type: %w", err)
	}
	return entities.ReconstructAssetType(id, code, displayName, active), nil
}
