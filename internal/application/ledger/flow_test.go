package ledger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/domain/ledgererrors"
	"github.com/wallethub/ledgercore/internal/domain/money"
)

type world struct {
	store    *fakeStore
	service  *Service
	diamond  *entities.AssetType
	alice    *entities.Account
	bob      *entities.Account
	charlie  *entities.Account
}

func newWorld(t *testing.T) *world {
	t.Helper()
	store := newFakeStore()
	diamond := store.addAssetType("DIAMOND")

	alice := store.addAccount(entities.AccountKindUser, diamond.ID(), "Alice", "", "500")
	bob := store.addAccount(entities.AccountKindUser, diamond.ID(), "Bob", "", "200")
	charlie := store.addAccount(entities.AccountKindUser, diamond.ID(), "Charlie", "", "150")
	store.addAccount(entities.AccountKindSystem, diamond.ID(), "Treasury", "treasury:DIAMOND", "")
	store.addAccount(entities.AccountKindSystem, diamond.ID(), "Bonus Pool", "bonus_pool:DIAMOND", "")
	store.addAccount(entities.AccountKindSystem, diamond.ID(), "Revenue", "revenue:DIAMOND", "")

	svc := New(DefaultConfig(), Deps{
		Sessions:     store,
		Resolver:     store,
		Postings:     store,
		Idempotency:  store,
		Transactions: txRepoAdapter{s: store},
		Accounts:     accountRepoAdapter{s: store},
		AssetTypes:   assetTypeRepoAdapter{s: store},
		Events:       store,
		Queries:      store,
	}, slog.Default())

	return &world{store: store, service: svc, diamond: diamond, alice: alice, bob: bob, charlie: charlie}
}

// fakeCacheInvalidator records every account it's asked to invalidate, so
// tests can assert on invalidation timing and scope without a real cache.
type fakeCacheInvalidator struct {
	invalidated []uuid.UUID
}

func (f *fakeCacheInvalidator) InvalidateAccount(ctx context.Context, accountID uuid.UUID) error {
	f.invalidated = append(f.invalidated, accountID)
	return nil
}

// newWorldWithCache is newWorld plus a fakeCacheInvalidator wired as the
// service's Cache dependency, for tests exercising post-commit invalidation.
func newWorldWithCache(t *testing.T) (*world, *fakeCacheInvalidator) {
	t.Helper()
	store := newFakeStore()
	diamond := store.addAssetType("DIAMOND")

	alice := store.addAccount(entities.AccountKindUser, diamond.ID(), "Alice", "", "500")
	bob := store.addAccount(entities.AccountKindUser, diamond.ID(), "Bob", "", "200")
	charlie := store.addAccount(entities.AccountKindUser, diamond.ID(), "Charlie", "", "150")
	store.addAccount(entities.AccountKindSystem, diamond.ID(), "Treasury", "treasury:DIAMOND", "")
	store.addAccount(entities.AccountKindSystem, diamond.ID(), "Bonus Pool", "bonus_pool:DIAMOND", "")
	store.addAccount(entities.AccountKindSystem, diamond.ID(), "Revenue", "revenue:DIAMOND", "")

	cache := &fakeCacheInvalidator{}
	svc := New(DefaultConfig(), Deps{
		Sessions:     store,
		Resolver:     store,
		Postings:     store,
		Idempotency:  store,
		Transactions: txRepoAdapter{s: store},
		Accounts:     accountRepoAdapter{s: store},
		AssetTypes:   assetTypeRepoAdapter{s: store},
		Events:       store,
		Queries:      store,
		Cache:        cache,
	}, slog.Default())

	return &world{store: store, service: svc, diamond: diamond, alice: alice, bob: bob, charlie: charlie}, cache
}

func amt(t *testing.T, s string) money.Amount {
	t.Helper()
	a, err := money.NewFromString(s)
	require.NoError(t, err)
	return a
}

func TestTopUp_FreshThenReplay(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	resp, err := w.service.TopUp(ctx, FlowRequest{AccountID: w.alice.ID(), Magnitude: amt(t, "100"), Reference: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "600", resp.BalanceAfter)
	assert.False(t, resp.Idempotent)

	replay, err := w.service.TopUp(ctx, FlowRequest{AccountID: w.alice.ID(), Magnitude: amt(t, "100"), Reference: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "600", replay.BalanceAfter)
	assert.True(t, replay.Idempotent)
	assert.Equal(t, resp.TransactionID, replay.TransactionID)

	bal, err := w.service.Balance(ctx, w.alice.ID())
	require.NoError(t, err)
	assert.Equal(t, "600", bal.Amount.String())
}

func TestBonus_CreditsUserAndStaysConsistent(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	resp, err := w.service.Bonus(ctx, FlowRequest{AccountID: w.bob.ID(), Magnitude: amt(t, "25"), Reference: "r2"})
	require.NoError(t, err)
	assert.Equal(t, "225", resp.BalanceAfter)

	report, err := w.service.Audit(ctx, w.bob.ID())
	require.NoError(t, err)
	assert.True(t, report.IsConsistent)
	assert.Equal(t, "0", report.Discrepancy.String())
}

func TestSpend_DebitsUserCreditsRevenue(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.service.TopUp(ctx, FlowRequest{AccountID: w.alice.ID(), Magnitude: amt(t, "100"), Reference: "seed"})
	require.NoError(t, err)

	resp, err := w.service.Spend(ctx, FlowRequest{AccountID: w.alice.ID(), Magnitude: amt(t, "30"), Reference: "r3"})
	require.NoError(t, err)
	assert.Equal(t, "570", resp.BalanceAfter)
}

func TestSpend_InsufficientBalance(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.service.Spend(ctx, FlowRequest{AccountID: w.bob.ID(), Magnitude: amt(t, "999999"), Reference: "r4"})
	require.Error(t, err)
	assert.Equal(t, ledgererrors.KindInsufficientBalance, ledgererrors.KindOf(err))

	page, err := w.service.History(ctx, w.bob.ID(), ports.HistoryFilter{Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, page.Entries)
}

func TestTopUp_NonexistentAccount(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.service.TopUp(ctx, FlowRequest{AccountID: uuid.New(), Magnitude: amt(t, "100"), Reference: "r5"})
	require.Error(t, err)
	assert.Equal(t, ledgererrors.KindAccountNotFound, ledgererrors.KindOf(err))
}

func TestSpend_ConcurrentRequestsOnlyOneSucceeds(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.service.TopUp(ctx, FlowRequest{AccountID: w.alice.ID(), Magnitude: amt(t, "70"), Reference: "seed2"})
	require.NoError(t, err)
	// Alice now at 570. A real serializable store would retry one of these
	// two to serial order; the fake session runner has no real contention,
	// so this exercises the balance-floor invariant rather than the retry
	// path (covered separately by the postgres integration tests).
	successes := 0
	run := func(ref string) {
		_, err := w.service.Spend(ctx, FlowRequest{AccountID: w.alice.ID(), Magnitude: amt(t, "400"), Reference: ref})
		if err == nil {
			successes++
		}
	}
	run("ra")
	run("rb")

	assert.Equal(t, 1, successes)
	bal, err := w.service.Balance(ctx, w.alice.ID())
	require.NoError(t, err)
	assert.False(t, bal.Amount.IsNegative())
}

func TestBalance_UnknownAccount(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.service.Balance(ctx, uuid.New())
	require.Error(t, err)
	assert.Equal(t, ledgererrors.KindAccountNotFound, ledgererrors.KindOf(err))
}

func TestBalance_DeactivatedAccount(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	w.alice.Deactivate()

	_, err := w.service.Balance(ctx, w.alice.ID())
	require.Error(t, err)
	assert.Equal(t, ledgererrors.KindAccountNotFound, ledgererrors.KindOf(err))
}

func TestTopUp_InvalidatesBothAccountsAfterCommit(t *testing.T) {
	w, cache := newWorldWithCache(t)
	ctx := context.Background()

	resp, err := w.service.TopUp(ctx, FlowRequest{AccountID: w.alice.ID(), Magnitude: amt(t, "100"), Reference: "cache-1"})
	require.NoError(t, err)
	require.False(t, resp.Idempotent)

	treasuryID := w.store.byExternalID["treasury:DIAMOND"]
	assert.ElementsMatch(t, []uuid.UUID{w.alice.ID(), treasuryID}, cache.invalidated)
}

func TestTopUp_ReplayDoesNotInvalidateCache(t *testing.T) {
	w, cache := newWorldWithCache(t)
	ctx := context.Background()

	_, err := w.service.TopUp(ctx, FlowRequest{AccountID: w.alice.ID(), Magnitude: amt(t, "100"), Reference: "cache-2"})
	require.NoError(t, err)
	cache.invalidated = nil

	replay, err := w.service.TopUp(ctx, FlowRequest{AccountID: w.alice.ID(), Magnitude: amt(t, "100"), Reference: "cache-2"})
	require.NoError(t, err)
	require.True(t, replay.Idempotent)
	assert.Empty(t, cache.invalidated)
}

func TestTopUp_NilCacheDoesNotPanic(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.service.TopUp(ctx, FlowRequest{AccountID: w.alice.ID(), Magnitude: amt(t, "100"), Reference: "cache-3"})
	require.NoError(t, err)
}
