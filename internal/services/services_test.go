package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/lock"
	"finanzas/internal/storage"
)

var testNow = time.Date(2024, 1, 20, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	t      *testing.T
	ctx    context.Context
	repo   *storage.SQLiteRepository
	locker *lock.Local
	engine *ledger.Engine
}

func newTestEnv(t *testing.T, opts ...ledger.Option) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "finanzas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	locker := lock.NewLocal()
	opts = append([]ledger.Option{ledger.WithClock(func() time.Time { return testNow })}, opts...)
	return &testEnv{
		t:      t,
		ctx:    context.Background(),
		repo:   repo,
		locker: locker,
		engine: ledger.NewEngine(repo, locker, opts...),
	}
}

func (e *testEnv) account(owner, name, currency, balance string) core.Account {
	e.t.Helper()
	a, err := NewAccountService(e.repo, e.locker).Create(e.ctx, owner, NewAccount{
		Name: name, Kind: core.Bank, Currency: currency, OpeningBalance: dec(balance),
	})
	require.NoError(e.t, err)
	return a
}

func (e *testEnv) balance(owner, id string) string {
	e.t.Helper()
	a, err := e.repo.GetAccount(e.ctx, owner, id)
	require.NoError(e.t, err)
	return a.Balance.StringFixed(2)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }
