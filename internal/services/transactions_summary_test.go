package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

func TestTransactionService(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTransactionService(env.engine, env.repo)
	a := env.account("alice", "Main", "USD", "100")

	var ids []string
	for i := 1; i <= 3; i++ {
		tx, err := svc.Create(env.ctx, "alice", core.Transaction{
			Account: a.ID, Kind: core.Expense, Category: "Food", Amount: dec("1"),
			Date: core.NewDate(2024, 1, i),
		})
		require.NoError(t, err)
		ids = append(ids, tx.ID)
	}

	page, err := svc.List(env.ctx, "alice", 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID, "newest first")

	page, err = svc.List(env.ctx, "alice", 0, -5)
	require.NoError(t, err)
	assert.Len(t, page, 3)

	same, err := svc.Update(env.ctx, "alice", ids[0], ledger.Patch{})
	require.NoError(t, err)
	assert.Equal(t, ids[0], same.ID)

	updated, err := svc.Update(env.ctx, "alice", ids[0], ledger.Patch{Amount: ptr(dec("5"))})
	require.NoError(t, err)
	assert.Equal(t, "5", updated.Amount.String())
	assert.Equal(t, "93.00", env.balance("alice", a.ID))

	_, err = svc.Get(env.ctx, "bob", ids[0])
	assert.ErrorIs(t, err, core.ErrNotOwned)

	deleted, err := svc.Delete(env.ctx, "alice", ids[1])
	require.NoError(t, err)
	assert.Equal(t, ids[1], deleted.ID)
	assert.Equal(t, "94.00", env.balance("alice", a.ID))
}

func TestSummaryService_Monthly(t *testing.T) {
	env := newTestEnv(t)
	summary := NewSummaryService(env.repo, env.repo, nil)
	usd := env.account("alice", "Dollars", "USD", "1000")
	usd2 := env.account("alice", "Savings", "USD", "0")
	eur := env.account("alice", "Euros", "EUR", "1000")

	drafts := []core.Transaction{
		{Account: usd.ID, Kind: core.Income, Category: "Salary", Amount: dec("2000"), Date: core.NewDate(2024, 1, 1)},
		{Account: usd.ID, Kind: core.Expense, Category: "Food", Amount: dec("40.5"), Date: core.NewDate(2024, 1, 3)},
		{Account: usd.ID, Kind: core.Expense, Category: "Food", Amount: dec("9.5"), Date: core.NewDate(2024, 1, 31)},
		{Account: usd.ID, ToAccount: usd2.ID, Kind: core.Transfer, Amount: dec("300"), Date: core.NewDate(2024, 1, 10)},
		{Account: eur.ID, Kind: core.Expense, Category: "Rent", Amount: dec("700"), Date: core.NewDate(2024, 1, 5)},
		{Account: usd.ID, Kind: core.Expense, Category: "Food", Amount: dec("99"), Date: core.NewDate(2024, 2, 1)},
	}
	for _, d := range drafts {
		_, err := env.engine.Apply(env.ctx, "alice", d)
		require.NoError(t, err)
	}

	s, err := summary.Monthly(env.ctx, "alice", 2024, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Transactions)
	require.Len(t, s.Currencies, 2)

	eurTotals, usdTotals := s.Currencies[0], s.Currencies[1]
	assert.Equal(t, "EUR", eurTotals.Currency)
	assert.Equal(t, "-700", eurTotals.Net.String())

	assert.Equal(t, "USD", usdTotals.Currency)
	assert.Equal(t, "2000", usdTotals.Income.String())
	assert.Equal(t, "50", usdTotals.Expense.String())
	assert.Equal(t, "300", usdTotals.Transfers.String())
	assert.Equal(t, "1950", usdTotals.Net.String())
	require.Len(t, usdTotals.ByCategory, 2)
	food := usdTotals.ByCategory[0]
	assert.Equal(t, core.Expense, food.Kind)
	assert.Equal(t, "Food", food.Category)
	assert.Equal(t, "50", food.Total.String())
	assert.Equal(t, 2, food.Count)
	assert.Equal(t, "Salary", usdTotals.ByCategory[1].Category)

	_, err = summary.Monthly(env.ctx, "alice", 2024, 13)
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	empty, err := summary.Monthly(env.ctx, "bob", 2024, 1)
	require.NoError(t, err)
	assert.Empty(t, empty.Currencies)
}

func TestSummaryService_InvalidatedOnCommit(t *testing.T) {
	base := newTestEnv(t)
	summary := NewSummaryService(base.repo, base.repo, nil)
	engine := ledger.NewEngine(base.repo, base.locker, ledger.WithCommitHook(summary.Invalidate))
	a := base.account("alice", "Main", "USD", "0")

	first, err := summary.Monthly(base.ctx, "alice", 2024, 1)
	require.NoError(t, err)
	assert.Zero(t, first.Transactions)

	// Written behind the engine's back: the cached projection does not see it.
	require.NoError(t, base.repo.InsertTransaction(base.ctx, core.Transaction{
		ID: "raw", Owner: "alice", Account: a.ID, Kind: core.Income, Category: "Gift",
		Amount: dec("1"), Date: core.NewDate(2024, 1, 2), CreatedAt: testNow, UpdatedAt: testNow,
	}))
	cached, err := summary.Monthly(base.ctx, "alice", 2024, 1)
	require.NoError(t, err)
	assert.Zero(t, cached.Transactions)

	_, err = engine.Apply(base.ctx, "alice", core.Transaction{
		Account: a.ID, Kind: core.Income, Category: "Gift", Amount: dec("2"), Date: core.NewDate(2024, 1, 3),
	})
	require.NoError(t, err)

	fresh, err := summary.Monthly(base.ctx, "alice", 2024, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Transactions)
	assert.Equal(t, "3", fresh.Currencies[0].Income.String())
}

func TestSummaryService_InvalidatedOnAccountChange(t *testing.T) {
	env := newTestEnv(t)
	summary := NewSummaryService(env.repo, env.repo, nil)
	accounts := NewAccountService(env.repo, env.locker).OnChange(summary.Invalidate)
	a := env.account("alice", "Main", "USD", "100")
	_, err := env.engine.Apply(env.ctx, "alice", core.Transaction{
		Account: a.ID, Kind: core.Expense, Category: "Food", Amount: dec("10"), Date: core.NewDate(2024, 1, 3),
	})
	require.NoError(t, err)

	before, err := summary.Monthly(env.ctx, "alice", 2024, 1)
	require.NoError(t, err)
	require.Len(t, before.Currencies, 1)
	assert.Equal(t, "USD", before.Currencies[0].Currency)

	_, err = accounts.Update(env.ctx, "alice", a.ID, AccountPatch{Currency: ptr("EUR")})
	require.NoError(t, err)
	afterEdit, err := summary.Monthly(env.ctx, "alice", 2024, 1)
	require.NoError(t, err)
	require.Len(t, afterEdit.Currencies, 1)
	assert.Equal(t, "EUR", afterEdit.Currencies[0].Currency)

	require.NoError(t, accounts.Delete(env.ctx, "alice", a.ID))
	afterDelete, err := summary.Monthly(env.ctx, "alice", 2024, 1)
	require.NoError(t, err)
	require.Len(t, afterDelete.Currencies, 1)
	assert.Equal(t, UnknownCurrency, afterDelete.Currencies[0].Currency)
}
