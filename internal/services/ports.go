// Package services holds the application operations that sit beside the
// ledger: resource CRUD, billing runs, summaries and the outbox relay.
package services

import (
	"context"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

// The store interfaces below are the slices of *storage.SQLiteRepository each
// service depends on.

type AccountStore interface {
	CreateAccount(ctx context.Context, a core.Account) error
	GetAccount(ctx context.Context, owner, id string) (core.Account, error)
	ListAccounts(ctx context.Context, owner string) ([]core.Account, error)
	UpdateAccountAttributes(ctx context.Context, a core.Account) error
	DeleteAccount(ctx context.Context, id string) error
	CountTransactionsTouching(ctx context.Context, accountID string) (int64, error)
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, c core.Category) error
	GetCategory(ctx context.Context, owner, id string) (core.Category, error)
	ListCategories(ctx context.Context, owner string) ([]core.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type GoalStore interface {
	CreateGoal(ctx context.Context, g core.SavingGoal) error
	GetGoal(ctx context.Context, owner, id string) (core.SavingGoal, error)
	ListGoals(ctx context.Context, owner string) ([]core.SavingGoal, error)
	UpdateGoal(ctx context.Context, g core.SavingGoal) error
	DeleteGoal(ctx context.Context, id string) error
}

type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, s core.Subscription) error
	GetSubscription(ctx context.Context, owner, id string) (core.Subscription, error)
	ListSubscriptions(ctx context.Context, owner string) ([]core.Subscription, error)
	UpdateSubscription(ctx context.Context, s core.Subscription) error
	DeleteSubscription(ctx context.Context, id string) error
	GetAccount(ctx context.Context, owner, id string) (core.Account, error)
}

type DueSubscriptionStore interface {
	DueSubscriptions(ctx context.Context, day core.Date) ([]core.Subscription, error)
}

type TransactionReader interface {
	GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, owner string, limit, offset int) ([]core.Transaction, error)
	TransactionsBetween(ctx context.Context, owner string, from, to core.Date) ([]core.Transaction, error)
}

type OutboxStore interface {
	PendingEvents(ctx context.Context, limit int) ([]core.LedgerEvent, error)
	MarkEventPublished(ctx context.Context, id string, at time.Time) error
	RecordEventAttempt(ctx context.Context, id string) error
}

// Ledger is the write side of transactions, implemented by *ledger.Engine.
type Ledger interface {
	Apply(ctx context.Context, owner string, draft core.Transaction) (core.Transaction, error)
	Update(ctx context.Context, owner, id string, patch ledger.Patch) (core.Transaction, error)
	Delete(ctx context.Context, owner, id string) (core.Transaction, error)
	ChargeSubscription(ctx context.Context, owner, subscriptionID, accountID string, date core.Date) (core.Transaction, core.Subscription, error)
	ChargeDue(ctx context.Context, owner, subscriptionID, accountID string, asOf core.Date) (core.Transaction, core.Subscription, error)
}

func withLocks(ctx context.Context, locker ledger.Locker, keys []string, fn func(context.Context) error) error {
	if locker == nil {
		return fn(ctx)
	}
	return locker.WithLocks(ctx, keys, fn)
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c()
}
