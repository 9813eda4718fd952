package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

// Store opens units of work. Everything fn does through the Tx commits
// together or not at all.
type Store interface {
	Atomic(ctx context.Context, fn func(Tx) error) error
}

// Tx is the set of store operations the engine performs inside one unit of
// work. Every call is scoped to an owner: lookups and writes resolve the
// record by id and report core.ErrNotOwned (or core.ErrAccountNotOwned) when
// it belongs to someone else, and a write never touches a foreign row.
type Tx interface {
	GetAccount(ctx context.Context, owner, id string) (core.Account, error)
	SetAccountBalance(ctx context.Context, owner, id string, balance decimal.Decimal, at time.Time) error

	GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error)
	InsertTransaction(ctx context.Context, t core.Transaction) error
	UpdateTransaction(ctx context.Context, owner string, t core.Transaction) error
	DeleteTransaction(ctx context.Context, owner, id string) error

	GetSubscription(ctx context.Context, owner, id string) (core.Subscription, error)
	SetNextBillingDate(ctx context.Context, owner, id string, next core.Date, at time.Time) error

	CategoriesNamed(ctx context.Context, owner, name string) ([]core.Category, error)

	InsertAuditEntry(ctx context.Context, e core.AuditEntry) error
	InsertEvent(ctx context.Context, e core.LedgerEvent) error
}

// Locker serializes work on a set of keys. Implementations must acquire keys
// in a stable order so overlapping sets cannot deadlock.
type Locker interface {
	WithLocks(ctx context.Context, keys []string, fn func(context.Context) error) error
}
