package ledger_test

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/lock"
	"finanzas/internal/storage"
)

var fixedNow = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

type harness struct {
	t      *testing.T
	repo   *storage.SQLiteRepository
	engine *ledger.Engine
	locker *lock.Local
	ctx    context.Context
}

func newHarness(t *testing.T, opts ...ledger.Option) *harness {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	locker := lock.NewLocal()
	opts = append([]ledger.Option{ledger.WithClock(func() time.Time { return fixedNow })}, opts...)
	return &harness{
		t:      t,
		repo:   repo,
		engine: ledger.NewEngine(repo, locker, opts...),
		locker: locker,
		ctx:    context.Background(),
	}
}

func (h *harness) account(id, owner, balance string) {
	h.t.Helper()
	require.NoError(h.t, h.repo.CreateAccount(h.ctx, core.Account{
		ID: id, Owner: owner, Name: "acct-" + id, Kind: core.Bank,
		Balance: dec(balance), Currency: "USD", CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}))
}

func (h *harness) balance(owner, id string) string {
	h.t.Helper()
	a, err := h.repo.GetAccount(h.ctx, owner, id)
	require.NoError(h.t, err)
	return a.Balance.StringFixed(2)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func expense(account, amount string) core.Transaction {
	return core.Transaction{Account: account, Kind: core.Expense, Category: "Food", Amount: dec(amount), Date: core.NewDate(2024, 1, 20)}
}

func transfer(from, to, amount string) core.Transaction {
	return core.Transaction{Account: from, ToAccount: to, Kind: core.Transfer, Amount: dec(amount), Date: core.NewDate(2024, 1, 20)}
}

func TestScenarioExpenseThenUpdateToIncome(t *testing.T) {
	h := newHarness(t)
	h.account("A", "alice", "100")

	tx, err := h.engine.Apply(h.ctx, "alice", expense("A", "30"))
	require.NoError(t, err)
	assert.Equal(t, "70.00", h.balance("alice", "A"))

	kind := core.Income
	updated, err := h.engine.Update(h.ctx, "alice", tx.ID, ledger.Patch{Kind: &kind, Category: ptr("Salary")})
	require.NoError(t, err)
	assert.Equal(t, core.Income, updated.Kind)
	assert.Equal(t, "130.00", h.balance("alice", "A"))
}

func TestScenarioTransferThenDelete(t *testing.T) {
	h := newHarness(t)
	h.account("A", "alice", "100")
	h.account("B", "alice", "50")

	tx, err := h.engine.Apply(h.ctx, "alice", transfer("A", "B", "40"))
	require.NoError(t, err)
	assert.Equal(t, "60.00", h.balance("alice", "A"))
	assert.Equal(t, "90.00", h.balance("alice", "B"))

	deleted, err := h.engine.Delete(h.ctx, "alice", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, deleted.ID)
	assert.Equal(t, "100.00", h.balance("alice", "A"))
	assert.Equal(t, "50.00", h.balance("alice", "B"))

	_, err = h.repo.GetTransaction(h.ctx, "alice", tx.ID)
	assert.ErrorIs(t, err, core.ErrTransactionNotFound)
}

func TestScenarioChargeSubscription(t *testing.T) {
	h := newHarness(t)
	h.account("A", "alice", "100")
	require.NoError(t, h.repo.CreateSubscription(h.ctx, core.Subscription{
		ID: "sub-1", Owner: "alice", Name: "Music", Amount: dec("9.99"),
		NextBillingDate: core.NewDate(2024, 1, 15), Frequency: core.Mensual,
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}))

	tx, sub, err := h.engine.ChargeSubscription(h.ctx, "alice", "sub-1", "A", core.Date{})
	require.NoError(t, err)
	assert.Equal(t, "90.01", h.balance("alice", "A"))
	assert.Equal(t, "2024-02-15", sub.NextBillingDate.String())
	assert.Equal(t, "sub-1", tx.SubscriptionRef)
	assert.Equal(t, core.SubscriptionCategory, tx.Category)
	assert.Equal(t, "Music", tx.Description)
	assert.Equal(t, "2024-01-15", tx.Date.String())

	stored, err := h.repo.GetSubscription(h.ctx, "alice", "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-15", stored.NextBillingDate.String())

	txs, err := h.repo.ListTransactions(h.ctx, "alice", 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "sub-1", txs[0].SubscriptionRef)
}

func TestChargeSubscriptionFailureDoesNotAdvance(t *testing.T) {
	h := newHarness(t)
	h.account("B", "bob", "100")
	require.NoError(t, h.repo.CreateSubscription(h.ctx, core.Subscription{
		ID: "sub-1", Owner: "alice", Name: "Music", Amount: dec("9.99"),
		NextBillingDate: core.NewDate(2024, 1, 31), Frequency: core.Mensual,
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}))

	_, _, err := h.engine.ChargeSubscription(h.ctx, "alice", "sub-1", "B", core.Date{})
	assert.ErrorIs(t, err, core.ErrAccountNotOwned)

	_, _, err = h.engine.ChargeSubscription(h.ctx, "alice", "sub-1", "missing", core.Date{})
	assert.ErrorIs(t, err, core.ErrAccountNotFound)

	_, _, err = h.engine.ChargeSubscription(h.ctx, "bob", "sub-1", "B", core.Date{})
	assert.ErrorIs(t, err, core.ErrNotOwned)

	stored, err := h.repo.GetSubscription(h.ctx, "alice", "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", stored.NextBillingDate.String())
	assert.Equal(t, "100.00", h.balance("bob", "B"))
}

func TestChargeSubscriptionClampsToMonthEnd(t *testing.T) {
	h := newHarness(t)
	h.account("A", "alice", "100")
	require.NoError(t, h.repo.CreateSubscription(h.ctx, core.Subscription{
		ID: "sub-1", Owner: "alice", Name: "Gym", Amount: dec("20"),
		NextBillingDate: core.NewDate(2024, 1, 31), Frequency: core.Mensual,
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}))

	_, sub, err := h.engine.ChargeSubscription(h.ctx, "alice", "sub-1", "A", core.NewDate(2024, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", sub.NextBillingDate.String())

	_, sub, err = h.engine.ChargeSubscription(h.ctx, "alice", "sub-1", "A", core.Date{})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-29", sub.NextBillingDate.String())
	assert.Equal(t, "60.00", h.balance("alice", "A"))
}

func TestApplyRejectsInvalidInput(t *testing.T) {
	h := newHarness(t)
	h.account("A", "alice", "100")
	h.account("B", "bob", "100")
	require.NoError(t, h.repo.CreateCategory(h.ctx, core.Category{ID: "c1", Owner: "alice", Name: "Salary", Kind: core.Income}))

	cases := []struct {
		name  string
		draft core.Transaction
		want  error
	}{
		{"self transfer", transfer("A", "A", "10"), core.ErrInvalidTransfer},
		{"transfer without destination", transfer("A", "", "10"), core.ErrInvalidTransfer},
		{"zero amount", expense("A", "0"), core.ErrInvalidAmount},
		{"missing category", core.Transaction{Account: "A", Kind: core.Income, Amount: dec("5")}, core.ErrMissingCategory},
		{"unknown account", expense("nope", "10"), core.ErrAccountNotFound},
		{"foreign account", expense("B", "10"), core.ErrAccountNotOwned},
		{"foreign destination", transfer("A", "B", "10"), core.ErrAccountNotOwned},
		{"category kind mismatch", core.Transaction{Account: "A", Kind: core.Expense, Category: "salary", Amount: dec("5")}, core.ErrCategoryKind},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.engine.Apply(h.ctx, "alice", tc.draft)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, "100.00", h.balance("alice", "A"))
			assert.Equal(t, "100.00", h.balance("bob", "B"))
		})
	}

	txs, err := h.repo.ListTransactions(h.ctx, "alice", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, txs)
	events, err := h.repo.PendingEvents(h.ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestApplyAcceptsUnknownAndMatchingCategories(t *testing.T) {
	h := newHarness(t)
	h.account("A", "alice", "100")
	require.NoError(t, h.repo.CreateCategory(h.ctx, core.Category{ID: "c1", Owner: "alice", Name: "Food", Kind: core.Expense}))

	_, err := h.engine.Apply(h.ctx, "alice", expense("A", "10"))
	require.NoError(t, err)
	_, err = h.engine.Apply(h.ctx, "alice", core.Transaction{Account: "A", Kind: core.Expense, Category: "Books", Amount: dec("5")})
	require.NoError(t, err)
	assert.Equal(t, "85.00", h.balance("alice", "A"))
}

func TestApplyDefaultsDateToToday(t *testing.T) {
	h := newHarness(t)
	h.account("A", "alice", "0")

	tx, err := h.engine.Apply(h.ctx, "alice", core.Transaction{Account: "A", Kind: core.Income, Category: "Gift", Amount: dec("1.05")})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-20", tx.Date.String())
	assert.Equal(t, "alice", tx.Owner)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "1.05", h.balance("alice", "A"))
}

func TestApplyKeepsAmountAtCurrencyPrecision(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.repo.CreateAccount(h.ctx, core.Account{
		ID: "K", Owner: "alice", Name: "Dinars", Kind: core.Bank,
		Balance: dec("10.000"), Currency: "KWD", CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}))
	h.account("U", "alice", "10")

	tx, err := h.engine.Apply(h.ctx, "alice", expense("K", "1.234"))
	require.NoError(t, err)
	assert.Equal(t, "1.234", tx.Amount.String())
	k, err := h.repo.GetAccount(h.ctx, "alice", "K")
	require.NoError(t, err)
	assert.Equal(t, "8.766", k.Balance.StringFixed(3))
	stored, err := h.repo.GetTransaction(h.ctx, "alice", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.234", stored.Amount.String())

	_, err = h.engine.Apply(h.ctx, "alice", expense("U", "0.004"))
	assert.ErrorIs(t, err, core.ErrAmountPrecision)
	assert.Equal(t, core.ClassValidation, core.Classify(err))
	_, err = h.engine.Apply(h.ctx, "alice", expense("U", "1.234"))
	assert.ErrorIs(t, err, core.ErrAmountPrecision)
	_, err = h.engine.Apply(h.ctx, "alice", transfer("K", "U", "1.234"))
	assert.ErrorIs(t, err, core.ErrAmountPrecision, "destination currency limits the amount too")
	assert.Equal(t, "10.00", h.balance("alice", "U"))

	_, err = h.engine.Update(h.ctx, "alice", tx.ID, ledger.Patch{Account: ptr("U")})
	assert.ErrorIs(t, err, core.ErrAmountPrecision)
	k, err = h.repo.GetAccount(h.ctx, "alice", "K")
	require.NoError(t, err)
	assert.Equal(t, "8.766", k.Balance.StringFixed(3), "rejected update leaves balances alone")
}

func TestUpdateFailureLeavesEverythingUntouched(t *testing.T) {
	h := newHarness(t)
	h.account("A", "alice", "100")
	h.account("B", "alice", "50")

	tx, err := h.engine.Apply(h.ctx, "alice", expense("A", "30"))
	require.NoError(t, err)

	kind := core.Transfer
	_, err = h.engine.Update(h.ctx, "alice", tx.ID, ledger.Patch{Kind: &kind, ToAccount: ptr("A")})
	assert.ErrorIs(t, err, core.ErrInvalidTransfer)

	_, err = h.engine.Update(h.ctx, "alice", tx.ID, ledger.Patch{Account: ptr("ghost")})
	assert.ErrorIs(t, err, core.ErrAccountNotFound)

	assert.Equal(t, "70.00", h.balance("alice", "A"))
	assert.Equal(t, "50.00", h.balance("alice", "B"))
	stored, err := h.repo.GetTransaction(h.ctx, "alice", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Expense, stored.Kind)
	assert.Equal(t, "A", stored.Account)
}

func TestUpdateMovesBetweenAccountsAndKinds(t *testing.T) {
	h := newHarness(t)
	h.account("A", "alice", "100")
	h.account("B", "alice", "50")
	h.account("C", "alice", "0")

	tx, err := h.engine.Apply(h.ctx, "alice", transfer("A", "B", "40"))
	require.NoError(t, err)

	// transfer A->B becomes an expense on C; old destination must be reversed too
	kind := core.Expense
	updated, err := h.engine.Update(h.ctx, "alice", tx.ID, ledger.Patch{
		Kind: &kind, Account: ptr("C"), Category: ptr("Food"), Amount: ptr(dec("10")),
	})
	require.NoError(t, err)
	assert.Empty(t, updated.ToAccount)
	assert.Equal(t, "100.00", h.balance("alice", "A"))
	assert.Equal(t, "50.00", h.balance("alice", "B"))
	assert.Equal(t, "-10.00", h.balance("alice", "C"))

	// and back to a transfer C->A
	kind = core.Transfer
	_, err = h.engine.Update(h.ctx, "alice", tx.ID, ledger.Patch{Kind: &kind, ToAccount: ptr("A")})
	require.NoError(t, err)
	assert.Equal(t, "110.00", h.balance("alice", "A"))
	assert.Equal(t, "-10.00", h.balance("alice", "C"))
}

func TestUpdateAndDeleteOwnership(t *testing.T) {
	h := newHarness(t)
	h.account("A", "alice", "100")

	tx, err := h.engine.Apply(h.ctx, "alice", expense("A", "30"))
	require.NoError(t, err)

	_, err = h.engine.Update(h.ctx, "bob", tx.ID, ledger.Patch{Amount: ptr(dec("1"))})
	assert.ErrorIs(t, err, core.ErrNotOwned)
	_, err = h.engine.Delete(h.ctx, "bob", tx.ID)
	assert.ErrorIs(t, err, core.ErrNotOwned)
	_, err = h.engine.Delete(h.ctx, "alice", "missing")
	assert.ErrorIs(t, err, core.ErrTransactionNotFound)

	assert.Equal(t, "70.00", h.balance("alice", "A"))
}

func TestStaleReferences(t *testing.T) {
	h := newHarness(t)
	h.account("A", "alice", "100")
	h.account("B", "alice", "50")

	tx, err := h.engine.Apply(h.ctx, "alice", transfer("A", "B", "40"))
	require.NoError(t, err)
	require.NoError(t, h.repo.DeleteAccount(h.ctx, "B"))

	_, err = h.engine.Update(h.ctx, "alice", tx.ID, ledger.Patch{Amount: ptr(dec("10"))})
	assert.ErrorIs(t, err, core.ErrStaleReference)
	assert.True(t, core.IsFatal(err))
	assert.Equal(t, "60.00", h.balance("alice", "A"))

	_, err = h.engine.Delete(h.ctx, "alice", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", h.balance("alice", "A"))

	entries, err := h.repo.ListAuditEntries(h.ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, tx.ID, entries[0].TransactionID)
	assert.Equal(t, ledger.AuditSkippedReversal, entries[0].Action)
	assert.Contains(t, entries[0].Detail, "B")
}

func TestEventsAndHooks(t *testing.T) {
	var mu sync.Mutex
	var notified []string
	h := newHarness(t, ledger.WithCommitHook(func(_ context.Context, owner string) {
		mu.Lock()
		notified = append(notified, owner)
		mu.Unlock()
	}))
	h.account("A", "alice", "100")

	tx, err := h.engine.Apply(h.ctx, "alice", expense("A", "1"))
	require.NoError(t, err)
	_, err = h.engine.Update(h.ctx, "alice", tx.ID, ledger.Patch{Amount: ptr(dec("2"))})
	require.NoError(t, err)
	_, err = h.engine.Delete(h.ctx, "alice", tx.ID)
	require.NoError(t, err)
	_, err = h.engine.Apply(h.ctx, "alice", expense("A", "0"))
	require.Error(t, err)

	events, err := h.repo.PendingEvents(h.ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, core.EventTransactionCreated, events[0].Type)
	assert.Equal(t, core.EventTransactionUpdated, events[1].Type)
	assert.Equal(t, core.EventTransactionDeleted, events[2].Type)
	assert.True(t, events[1].Transaction.Amount.Equal(dec("2")))
	assert.Equal(t, []string{"alice", "alice", "alice"}, notified)
}

func TestOperationTimeout(t *testing.T) {
	h := newHarness(t, ledger.WithTimeout(30*time.Millisecond))
	h.account("A", "alice", "100")

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = h.locker.WithLocks(context.Background(), []string{"account:A"}, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	_, err := h.engine.Apply(h.ctx, "alice", expense("A", "10"))
	assert.ErrorIs(t, err, core.ErrOperationTimeout)
	assert.Equal(t, core.ClassFatal, core.Classify(err))
	assert.Equal(t, "100.00", h.balance("alice", "A"))
}

func TestConcurrentAppliesOnOneAccount(t *testing.T) {
	h := newHarness(t)
	h.account("A", "alice", "100")
	h.account("B", "alice", "0")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			draft := expense("A", "1")
			if i%2 == 0 {
				draft = transfer("B", "A", "1")
			}
			_, err := h.engine.Apply(h.ctx, "alice", draft)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, "100.00", h.balance("alice", "A"))
	assert.Equal(t, "-10.00", h.balance("alice", "B"))
}

// randomDraft builds a valid transaction over accounts A, B and C.
func randomDraft(r *rand.Rand) core.Transaction {
	ids := []string{"A", "B", "C"}
	amount := decimal.New(int64(r.Intn(100000)+1), -2)
	from := ids[r.Intn(len(ids))]
	switch r.Intn(3) {
	case 0:
		return core.Transaction{Account: from, Kind: core.Income, Category: "Salary", Amount: amount}
	case 1:
		return core.Transaction{Account: from, Kind: core.Expense, Category: "Food", Amount: amount}
	default:
		to := ids[(indexOf(ids, from)+1+r.Intn(2))%len(ids)]
		return core.Transaction{Account: from, ToAccount: to, Kind: core.Transfer, Amount: amount}
	}
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func (h *harness) snapshot() map[string]string {
	out := map[string]string{}
	for _, id := range []string{"A", "B", "C"} {
		out[id] = h.balance("alice", id)
	}
	return out
}

func (h *harness) total() decimal.Decimal {
	sum := decimal.Zero
	for _, id := range []string{"A", "B", "C"} {
		a, err := h.repo.GetAccount(h.ctx, "alice", id)
		require.NoError(h.t, err)
		sum = sum.Add(a.Balance)
	}
	return sum
}

func TestPropertyApplyThenDeleteRestores(t *testing.T) {
	h := newHarness(t)
	h.account("A", "alice", "100")
	h.account("B", "alice", "50")
	h.account("C", "alice", "0")
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 40; i++ {
		draft := randomDraft(r)
		before := h.snapshot()
		totalBefore := h.total()

		tx, err := h.engine.Apply(h.ctx, "alice", draft)
		require.NoError(t, err, "draft %d: %+v", i, draft)

		change := h.total().Sub(totalBefore)
		switch draft.Kind {
		case core.Transfer:
			assert.True(t, change.IsZero(), "transfer changed total by %s", change)
		case core.Income:
			assert.True(t, change.Equal(draft.Amount))
		case core.Expense:
			assert.True(t, change.Equal(draft.Amount.Neg()))
		}

		_, err = h.engine.Delete(h.ctx, "alice", tx.ID)
		require.NoError(t, err)
		assert.Equal(t, before, h.snapshot(), "draft %d did not restore", i)
	}
}

func TestPropertyUpdateEqualsDeleteThenApply(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 15; i++ {
		first, second := randomDraft(r), randomDraft(r)
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			viaUpdate := newHarness(t)
			viaDelete := newHarness(t)
			for _, h := range []*harness{viaUpdate, viaDelete} {
				h.account("A", "alice", "100")
				h.account("B", "alice", "50")
				h.account("C", "alice", "0")
			}

			tx, err := viaUpdate.engine.Apply(viaUpdate.ctx, "alice", first)
			require.NoError(t, err)
			patch := ledger.Patch{
				Account:   ptr(second.Account),
				Kind:      ptr(second.Kind),
				Category:  ptr(second.Category),
				Amount:    ptr(second.Amount),
				ToAccount: ptr(second.ToAccount),
			}
			_, err = viaUpdate.engine.Update(viaUpdate.ctx, "alice", tx.ID, patch)
			require.NoError(t, err)

			tx2, err := viaDelete.engine.Apply(viaDelete.ctx, "alice", first)
			require.NoError(t, err)
			_, err = viaDelete.engine.Delete(viaDelete.ctx, "alice", tx2.ID)
			require.NoError(t, err)
			_, err = viaDelete.engine.Apply(viaDelete.ctx, "alice", second)
			require.NoError(t, err)

			assert.Equal(t, viaDelete.snapshot(), viaUpdate.snapshot())
		})
	}
}

func TestApplyUsesInjectedIDs(t *testing.T) {
	n := 0
	h := newHarness(t, ledger.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
	h.account("A", "alice", "100")

	tx, err := h.engine.Apply(h.ctx, "alice", expense("A", "5"))
	require.NoError(t, err)
	assert.Equal(t, "id-1", tx.ID)

	events, err := h.repo.PendingEvents(h.ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "id-2", events[0].ID)
	assert.Equal(t, "id-1", events[0].Transaction.ID)
}

type keyRecorder struct {
	ledger.Locker
	mu   sync.Mutex
	seen [][]string
}

func (r *keyRecorder) WithLocks(ctx context.Context, keys []string, fn func(context.Context) error) error {
	r.mu.Lock()
	r.seen = append(r.seen, append([]string(nil), keys...))
	r.mu.Unlock()
	return r.Locker.WithLocks(ctx, keys, fn)
}

func TestLockKeysUseTrimmedAccountIDs(t *testing.T) {
	h := newHarness(t)
	h.account("A", "alice", "100")
	h.account("B", "alice", "50")
	rec := &keyRecorder{Locker: h.locker}
	engine := ledger.NewEngine(h.repo, rec, ledger.WithClock(func() time.Time { return fixedNow }))

	tx, err := engine.Apply(h.ctx, "alice", expense(" A ", "10"))
	require.NoError(t, err)
	_, err = engine.Update(h.ctx, "alice", tx.ID, ledger.Patch{Account: ptr(" B ")})
	require.NoError(t, err)

	require.Len(t, rec.seen, 2)
	assert.Equal(t, []string{"account:A"}, rec.seen[0])
	assert.ElementsMatch(t, []string{"account:A", "account:B"}, rec.seen[1])
	assert.Equal(t, "100.00", h.balance("alice", "A"))
	assert.Equal(t, "40.00", h.balance("alice", "B"))
}
