// Package ledger implements the three money-movement flow handlers and
// the read-only query operations as application-layer orchestrations
// over the ports, in the teacher's use-case style: one struct per
// concern, dependencies injected as port interfaces, business logic
// expressed in terms of those interfaces only.
package ledger

import (
	"log/slog"
	"time"

	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/entities"
)

// Config configures the system-account external-id naming convention
// each flow uses to find its counterparty, and the idempotency record
// lifetime. Each template is formatted with the user account's
// asset-type code (e.g. "treasury:%s" with code "DIAMOND" yields
// "treasury:DIAMOND").
type Config struct {
	TreasuryExternalIDTemplate  string
	BonusPoolExternalIDTemplate string
	RevenueExternalIDTemplate   string
	IdempotencyRetention        time.Duration
}

// DefaultConfig returns the naming convention used when none is supplied.
func DefaultConfig() Config {
	return Config{
		TreasuryExternalIDTemplate:  "treasury:%s",
		BonusPoolExternalIDTemplate: "bonus_pool:%s",
		RevenueExternalIDTemplate:   "revenue:%s",
		IdempotencyRetention:        entities.DefaultRetention,
	}
}

// Service wires the ledger core's ports into the flow handlers and query
// operations. It holds no mutable state of its own beyond the injected
// collaborators.
type Service struct {
	cfg Config
	log *slog.Logger

	sessions       ports.SessionRunner
	resolver       ports.AccountResolver
	postings       ports.PostingEngine
	idempotency    ports.IdempotencyStore
	transactions   ports.TransactionRepository
	accounts       ports.AccountRepository
	assetTypes     ports.AssetTypeRepository
	events         ports.EventPublisher
	queries        ports.QuerySurface
	cache          ports.CacheInvalidator
}

// Deps collects the Service's collaborators so construction reads as one
// call instead of ten positional arguments.
type Deps struct {
	Sessions     ports.SessionRunner
	Resolver     ports.AccountResolver
	Postings     ports.PostingEngine
	Idempotency  ports.IdempotencyStore
	Transactions ports.TransactionRepository
	Accounts     ports.AccountRepository
	AssetTypes   ports.AssetTypeRepository
	Events       ports.EventPublisher
	Queries      ports.QuerySurface
	// Cache is optional; when set, it is invalidated for every account a
	// posting touched strictly after that posting's transaction commits.
	Cache ports.CacheInvalidator
}

// New constructs a Service. cfg may be the zero value, in which case
// DefaultConfig is used.
func New(cfg Config, deps Deps, log *slog.Logger) *Service {
	if cfg.TreasuryExternalIDTemplate == "" {
		cfg = DefaultConfig()
	}
	if cfg.IdempotencyRetention <= 0 {
		cfg.IdempotencyRetention = entities.DefaultRetention
	}
	return &Service{
		cfg:          cfg,
		log:          log,
		sessions:     deps.Sessions,
		resolver:     deps.Resolver,
		postings:     deps.Postings,
		idempotency:  deps.Idempotency,
		transactions: deps.Transactions,
		accounts:     deps.Accounts,
		assetTypes:   deps.AssetTypes,
		events:       deps.Events,
		queries:      deps.Queries,
		cache:        deps.Cache,
	}
}
