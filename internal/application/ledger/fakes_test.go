package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/domain/ledgererrors"
	"github.com/wallethub/ledgercore/internal/domain/money"
)

// in-memory fakes standing in for the persistence layer, exercising the
// same port contracts the real pgx-backed adapters implement.

type fakeStore struct {
	accounts      map[uuid.UUID]*entities.Account
	byExternalID  map[string]uuid.UUID
	balances      map[uuid.UUID]*entities.Balance
	assetTypes    map[uuid.UUID]*entities.AssetType
	transactions  map[string]*entities.Transaction
	idempotency   map[string]*entities.IdempotencyRecord
	journal       []*entities.JournalEntry
	events        []ports.PostingCommittedEvent
	// opening holds balances seeded directly by addAccount, which have no
	// journal entries behind them; Audit adds them to the journal sum.
	opening       map[uuid.UUID]money.Amount
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:     map[uuid.UUID]*entities.Account{},
		byExternalID: map[string]uuid.UUID{},
		balances:     map[uuid.UUID]*entities.Balance{},
		assetTypes:   map[uuid.UUID]*entities.AssetType{},
		transactions: map[string]*entities.Transaction{},
		idempotency:  map[string]*entities.IdempotencyRecord{},
		opening:      map[uuid.UUID]money.Amount{},
	}
}

func (s *fakeStore) addAssetType(code string) *entities.AssetType {
	at, err := entities.NewAssetType(code, code)
	if err != nil {
		panic(err)
	}
	s.assetTypes[at.ID()] = at
	return at
}

func (s *fakeStore) addAccount(kind entities.AccountKind, assetTypeID uuid.UUID, name, externalID string, seed string) *entities.Account {
	a, err := entities.NewAccount(kind, assetTypeID, name, externalID)
	if err != nil {
		panic(err)
	}
	s.accounts[a.ID()] = a
	if ext := a.ExternalID(); ext != nil {
		s.byExternalID[*ext] = a.ID()
	}
	bal := entities.NewBalance(a.ID(), assetTypeID)
	if seed != "" {
		amt, err := money.NewFromString(seed)
		if err != nil {
			panic(err)
		}
		next, err := bal.ApplyDelta(amt, true) // direct seed, not a posting
		if err != nil {
			panic(err)
		}
		bal.Advance(next)
		s.opening[a.ID()] = amt
	}
	s.balances[a.ID()] = bal
	return a
}

// --- ports.SessionRunner ---

func (s *fakeStore) RunSerializable(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// --- ports.AccountResolver ---

func (s *fakeStore) ResolveByExternalID(ctx context.Context, externalID string) (*entities.Account, error) {
	id, ok := s.byExternalID[externalID]
	if !ok {
		return nil, nil
	}
	return s.accounts[id], nil
}

func (s *fakeStore) LockAccounts(ctx context.Context, ids []uuid.UUID) ([]entities.LockedAccount, error) {
	dedup := map[uuid.UUID]struct{}{}
	var unique []uuid.UUID
	for _, id := range ids {
		if _, seen := dedup[id]; seen {
			continue
		}
		dedup[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].String() < unique[j].String() })

	var out []entities.LockedAccount
	for _, id := range unique {
		acc, ok := s.accounts[id]
		if !ok || !acc.Active() {
			continue
		}
		out = append(out, entities.LockedAccount{Account: acc, Balance: s.balances[id]})
	}
	return out, nil
}

// --- ports.PostingEngine ---

func (s *fakeStore) Post(ctx context.Context, plan ports.PostingPlan) (ports.PostingResult, error) {
	debitAllowNegative := plan.Debit.Account.IsSystem()
	debitAfter, err := plan.Debit.Balance.ApplyDelta(plan.Magnitude.Neg(), debitAllowNegative)
	if err != nil {
		return ports.PostingResult{}, err
	}
	creditAllowNegative := plan.Credit.Account.IsSystem()
	creditAfter, err := plan.Credit.Balance.ApplyDelta(plan.Magnitude, creditAllowNegative)
	if err != nil {
		return ports.PostingResult{}, err
	}

	s.journal = append(s.journal,
		entities.NewJournalEntry(plan.TransactionID, plan.Debit.Account.ID(), plan.AssetTypeID, plan.Magnitude, debitAfter),
		entities.NewJournalEntry(plan.TransactionID, plan.Credit.Account.ID(), plan.AssetTypeID, plan.Magnitude.Neg(), creditAfter),
	)
	plan.Debit.Balance.Advance(debitAfter)
	plan.Credit.Balance.Advance(creditAfter)

	return ports.PostingResult{DebitBalanceAfter: debitAfter, CreditBalanceAfter: creditAfter}, nil
}

// --- ports.IdempotencyStore ---

func (s *fakeStore) Lookup(ctx context.Context, reference string) (*entities.IdempotencyRecord, error) {
	rec, ok := s.idempotency[reference]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func (s *fakeStore) Store(ctx context.Context, record *entities.IdempotencyRecord) error {
	if _, exists := s.idempotency[record.Reference()]; exists {
		return nil
	}
	s.idempotency[record.Reference()] = record
	return nil
}

// --- ports.TransactionRepository ---

func (s *fakeStore) CreateTransaction(ctx context.Context, tx *entities.Transaction) error {
	s.transactions[tx.Reference()] = tx
	return nil
}

// --- ports.AccountRepository ---

func (s *fakeStore) CreateAccount(ctx context.Context, account *entities.Account) error {
	s.accounts[account.ID()] = account
	if ext := account.ExternalID(); ext != nil {
		s.byExternalID[*ext] = account.ID()
	}
	return nil
}

func (s *fakeStore) FindByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	acc, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return acc, nil
}

func (s *fakeStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	if acc, ok := s.accounts[id]; ok {
		acc.Deactivate()
	}
	return nil
}

// --- ports.AssetTypeRepository ---

func (s *fakeStore) FindByCode(ctx context.Context, code string) (*entities.AssetType, error) {
	for _, at := range s.assetTypes {
		if at.Code() == code {
			return at, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByIDAssetType(ctx context.Context, id uuid.UUID) (*entities.AssetType, error) {
	return s.assetTypes[id], nil
}

// --- ports.EventPublisher ---

func (s *fakeStore) Publish(ctx context.Context, event ports.PostingCommittedEvent) error {
	s.events = append(s.events, event)
	return nil
}

// --- ports.QuerySurface ---

func (s *fakeStore) Balance(ctx context.Context, accountID uuid.UUID) (ports.BalanceSnapshot, error) {
	acc, ok := s.accounts[accountID]
	if !ok || !acc.Active() {
		return ports.BalanceSnapshot{}, ledgererrors.New(ledgererrors.KindAccountNotFound,
			fmt.Sprintf("account %s not found or inactive", accountID), ledgererrors.ErrAccountNotFound)
	}
	bal, ok := s.balances[accountID]
	if !ok {
		return ports.BalanceSnapshot{}, ledgererrors.New(ledgererrors.KindAccountNotFound,
			fmt.Sprintf("account %s not found or inactive", accountID), ledgererrors.ErrAccountNotFound)
	}
	return ports.BalanceSnapshot{AccountID: accountID, Amount: bal.Amount(), Version: bal.Version()}, nil
}

func (s *fakeStore) History(ctx context.Context, accountID uuid.UUID, filter ports.HistoryFilter) (ports.HistoryPage, error) {
	var entries []ports.HistoryEntry
	for _, j := range s.journal {
		if j.AccountID() != accountID {
			continue
		}
		entries = append(entries, ports.HistoryEntry{
			JournalEntryID: j.ID(),
			TransactionID:  j.TransactionID(),
			Amount:         j.UserFacingAmount(),
			BalanceAfter:   j.BalanceAfter(),
			CreatedAt:      j.CreatedAt(),
		})
	}
	return ports.HistoryPage{Entries: entries, Total: len(entries)}, nil
}

func (s *fakeStore) Audit(ctx context.Context, accountID uuid.UUID) (ports.AuditReport, error) {
	sum := money.Zero()
	for _, j := range s.journal {
		if j.AccountID() == accountID {
			sum = sum.Add(j.Amount())
		}
	}
	opening, ok := s.opening[accountID]
	if !ok {
		opening = money.Zero()
	}
	recomputed := opening.Sub(sum)
	cached := money.Zero()
	if bal, ok := s.balances[accountID]; ok {
		cached = bal.Amount()
	}
	tolerance, _ := money.NewFromString("0.00000001")
	return ports.AuditReport{
		AccountID:         accountID,
		CachedBalance:     cached,
		RecomputedBalance: recomputed,
		Discrepancy:       cached.Sub(recomputed),
		IsConsistent:      money.Within(cached, recomputed, tolerance),
	}, nil
}

// assetTypeRepoAdapter resolves the naming clash between
// AccountRepository.FindByID and AssetTypeRepository.FindByID: fakeStore
// implements the former directly and exposes the latter under a
// differently-named method, adapted here to satisfy ports.AssetTypeRepository.
type assetTypeRepoAdapter struct{ s *fakeStore }

func (a assetTypeRepoAdapter) Create(ctx context.Context, at *entities.AssetType) error {
	a.s.assetTypes[at.ID()] = at
	return nil
}
func (a assetTypeRepoAdapter) FindByCode(ctx context.Context, code string) (*entities.AssetType, error) {
	return a.s.FindByCode(ctx, code)
}
func (a assetTypeRepoAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entities.AssetType, error) {
	return a.s.FindByIDAssetType(ctx, id)
}

// accountRepoAdapter resolves the Create-method name clash between
// AccountRepository and TransactionRepository on the same fake.
type accountRepoAdapter struct{ s *fakeStore }

func (a accountRepoAdapter) Create(ctx context.Context, account *entities.Account) error {
	return a.s.CreateAccount(ctx, account)
}
func (a accountRepoAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	return a.s.FindByID(ctx, id)
}
func (a accountRepoAdapter) Deactivate(ctx context.Context, id uuid.UUID) error {
	return a.s.Deactivate(ctx, id)
}

// txRepoAdapter adapts fakeStore's renamed CreateTransaction to
// ports.TransactionRepository.
type txRepoAdapter struct{ s *fakeStore }

func (a txRepoAdapter) Create(ctx context.Context, tx *entities.Transaction) error {
	return a.s.CreateTransaction(ctx, tx)
}
