package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

// Store exposes owner-aware record operations over a Queries handle. The
// repository hands out one bound to the database and Atomic hands out one
// bound to a transaction, so every call is available in both modes.
type Store struct {
	q *Queries
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// owned resolves the not-found / not-owned distinction after a lookup by id.
func owned(err error, recordOwner, owner string, notFound, notOwned error, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	if err != nil {
		return err
	}
	if recordOwner != owner {
		return fmt.Errorf("%w: %s", notOwned, id)
	}
	return nil
}

// missedWrite explains an owner-scoped write that matched no row, given the
// result of looking the record up again. The lookup reports not-owned for a
// foreign record; anything else falls back to notFound.
func missedWrite(lookupErr, notFound error, id string) error {
	if lookupErr != nil {
		return lookupErr
	}
	return fmt.Errorf("%w: %s", notFound, id)
}

// Accounts

func (s *Store) CreateAccount(ctx context.Context, a core.Account) error {
	err := s.q.CreateAccount(ctx, CreateAccountParams{
		ID:             a.ID,
		Owner:          a.Owner,
		Name:           strings.TrimSpace(a.Name),
		Kind:           string(a.Kind),
		Balance:        a.Balance.String(),
		OpeningBalance: a.Balance.String(),
		Currency:       a.Currency,
		CreatedAt:      formatTime(a.CreatedAt),
		UpdatedAt:      formatTime(a.UpdatedAt),
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: account %q", core.ErrDuplicateName, a.Name)
	}
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, owner, id string) (core.Account, error) {
	row, err := s.q.GetAccount(ctx, id)
	if err := owned(err, row.Owner, owner, core.ErrAccountNotFound, core.ErrAccountNotOwned, id); err != nil {
		return core.Account{}, err
	}
	return toCoreAccount(row)
}

func (s *Store) ListAccounts(ctx context.Context, owner string) ([]core.Account, error) {
	rows, err := s.q.ListAccountsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	accounts := make([]core.Account, 0, len(rows))
	for _, r := range rows {
		a, err := toCoreAccount(r)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// UpdateAccountAttributes writes name, kind and currency. The balance column
// is never touched here.
func (s *Store) UpdateAccountAttributes(ctx context.Context, a core.Account) error {
	_, err := s.q.UpdateAccountAttributes(ctx, UpdateAccountAttributesParams{
		Name:      strings.TrimSpace(a.Name),
		Kind:      string(a.Kind),
		Currency:  a.Currency,
		UpdatedAt: formatTime(a.UpdatedAt),
		ID:        a.ID,
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: account %q", core.ErrDuplicateName, a.Name)
	}
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

// SetAccountBalance writes the balance of one of owner's accounts.
func (s *Store) SetAccountBalance(ctx context.Context, owner, id string, balance decimal.Decimal, at time.Time) error {
	n, err := s.q.UpdateAccountBalance(ctx, UpdateAccountBalanceParams{
		Balance:   balance.String(),
		UpdatedAt: formatTime(at),
		ID:        id,
		Owner:     owner,
	})
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if n == 0 {
		_, err := s.GetAccount(ctx, owner, id)
		return missedWrite(err, core.ErrAccountNotFound, id)
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	if err := s.q.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// CountTransactionsTouching counts transactions that name the account as
// source or destination.
func (s *Store) CountTransactionsTouching(ctx context.Context, accountID string) (int64, error) {
	n, err := s.q.CountTransactionsTouchingAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// Transactions

func (s *Store) GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error) {
	row, err := s.q.GetTransaction(ctx, id)
	if err := owned(err, row.Owner, owner, core.ErrTransactionNotFound, core.ErrNotOwned, id); err != nil {
		return core.Transaction{}, err
	}
	return toCoreTransaction(row)
}

func (s *Store) ListTransactions(ctx context.Context, owner string, limit, offset int) ([]core.Transaction, error) {
	rows, err := s.q.ListTransactionsByOwner(ctx, ListTransactionsByOwnerParams{
		Owner:  owner,
		Limit:  int64(limit),
		Offset: int64(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return toCoreTransactions(rows)
}

// TransactionsBetween lists the owner's transactions dated in [from, to).
func (s *Store) TransactionsBetween(ctx context.Context, owner string, from, to core.Date) ([]core.Transaction, error) {
	rows, err := s.q.ListTransactionsBetween(ctx, ListTransactionsBetweenParams{
		Owner: owner,
		From:  formatDate(from),
		To:    formatDate(to),
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions between: %w", err)
	}
	return toCoreTransactions(rows)
}

func toCoreTransactions(rows []Transaction) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		t, err := toCoreTransaction(r)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) error {
	if err := s.q.CreateTransaction(ctx, fromCoreTransaction(t)); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, owner string, t core.Transaction) error {
	row := fromCoreTransaction(t)
	row.Owner = owner
	n, err := s.q.UpdateTransaction(ctx, row)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		_, err := s.GetTransaction(ctx, owner, t.ID)
		return missedWrite(err, core.ErrTransactionNotFound, t.ID)
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, owner, id string) error {
	n, err := s.q.DeleteTransaction(ctx, id, owner)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		_, err := s.GetTransaction(ctx, owner, id)
		return missedWrite(err, core.ErrTransactionNotFound, id)
	}
	return nil
}

// Subscriptions

func (s *Store) CreateSubscription(ctx context.Context, sub core.Subscription) error {
	if err := s.q.CreateSubscription(ctx, fromCoreSubscription(sub)); err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, owner, id string) (core.Subscription, error) {
	row, err := s.q.GetSubscription(ctx, id)
	if err := owned(err, row.Owner, owner, core.ErrSubscriptionNotFound, core.ErrNotOwned, id); err != nil {
		return core.Subscription{}, err
	}
	return toCoreSubscription(row)
}

func (s *Store) ListSubscriptions(ctx context.Context, owner string) ([]core.Subscription, error) {
	rows, err := s.q.ListSubscriptionsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return toCoreSubscriptions(rows)
}

// DueSubscriptions returns, across all owners, subscriptions with a default
// account whose next billing date is on or before day.
func (s *Store) DueSubscriptions(ctx context.Context, day core.Date) ([]core.Subscription, error) {
	rows, err := s.q.ListDueSubscriptions(ctx, formatDate(day))
	if err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	return toCoreSubscriptions(rows)
}

func toCoreSubscriptions(rows []Subscription) ([]core.Subscription, error) {
	out := make([]core.Subscription, 0, len(rows))
	for _, r := range rows {
		sub, err := toCoreSubscription(r)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub core.Subscription) error {
	n, err := s.q.UpdateSubscription(ctx, fromCoreSubscription(sub))
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrSubscriptionNotFound, sub.ID)
	}
	return nil
}

func (s *Store) SetNextBillingDate(ctx context.Context, owner, id string, next core.Date, at time.Time) error {
	n, err := s.q.UpdateNextBillingDate(ctx, UpdateNextBillingDateParams{
		NextBillingDate: formatDate(next),
		UpdatedAt:       formatTime(at),
		ID:              id,
		Owner:           owner,
	})
	if err != nil {
		return fmt.Errorf("advance billing date: %w", err)
	}
	if n == 0 {
		_, err := s.GetSubscription(ctx, owner, id)
		return missedWrite(err, core.ErrSubscriptionNotFound, id)
	}
	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, id string) error {
	if err := s.q.DeleteSubscription(ctx, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// Saving goals

func (s *Store) CreateGoal(ctx context.Context, g core.SavingGoal) error {
	err := s.q.CreateGoal(ctx, fromCoreGoal(g))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: goal %q", core.ErrDuplicateName, g.Name)
	}
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (s *Store) GetGoal(ctx context.Context, owner, id string) (core.SavingGoal, error) {
	row, err := s.q.GetGoal(ctx, id)
	if err := owned(err, row.Owner, owner, core.ErrGoalNotFound, core.ErrNotOwned, id); err != nil {
		return core.SavingGoal{}, err
	}
	return toCoreGoal(row)
}

func (s *Store) ListGoals(ctx context.Context, owner string) ([]core.SavingGoal, error) {
	rows, err := s.q.ListGoalsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	goals := make([]core.SavingGoal, 0, len(rows))
	for _, r := range rows {
		g, err := toCoreGoal(r)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g core.SavingGoal) error {
	_, err := s.q.UpdateGoal(ctx, fromCoreGoal(g))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: goal %q", core.ErrDuplicateName, g.Name)
	}
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	if err := s.q.DeleteGoal(ctx, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

// Categories

func (s *Store) CreateCategory(ctx context.Context, c core.Category) error {
	err := s.q.CreateCategory(ctx, Category{
		ID:    c.ID,
		Owner: c.Owner,
		Name:  strings.TrimSpace(c.Name),
		Kind:  string(c.Kind),
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: category %q", core.ErrDuplicateName, c.Name)
	}
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (s *Store) GetCategory(ctx context.Context, owner, id string) (core.Category, error) {
	row, err := s.q.GetCategory(ctx, id)
	if err := owned(err, row.Owner, owner, core.ErrCategoryNotFound, core.ErrNotOwned, id); err != nil {
		return core.Category{}, err
	}
	return toCoreCategory(row), nil
}

func (s *Store) ListCategories(ctx context.Context, owner string) ([]core.Category, error) {
	rows, err := s.q.ListCategoriesByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return toCoreCategories(rows), nil
}

// CategoriesNamed returns the owner's categories matching name case-insensitively.
func (s *Store) CategoriesNamed(ctx context.Context, owner, name string) ([]core.Category, error) {
	rows, err := s.q.ListCategoriesByName(ctx, ListCategoriesByNameParams{Owner: owner, Name: strings.TrimSpace(name)})
	if err != nil {
		return nil, fmt.Errorf("list categories by name: %w", err)
	}
	return toCoreCategories(rows), nil
}

func toCoreCategories(rows []Category) []core.Category {
	out := make([]core.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, toCoreCategory(r))
	}
	return out
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	if err := s.q.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// Audit and outbox

func (s *Store) InsertAuditEntry(ctx context.Context, e core.AuditEntry) error {
	err := s.q.CreateAuditEntry(ctx, LedgerAudit{
		ID:            e.ID,
		Owner:         e.Owner,
		TransactionID: e.TransactionID,
		Action:        e.Action,
		Detail:        e.Detail,
		CreatedAt:     formatTime(e.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListAuditEntries(ctx context.Context, owner string) ([]core.AuditEntry, error) {
	rows, err := s.q.ListAuditByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	out := make([]core.AuditEntry, 0, len(rows))
	for _, r := range rows {
		e, err := toCoreAudit(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) InsertEvent(ctx context.Context, e core.LedgerEvent) error {
	payload, err := json.Marshal(e.Transaction)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	err = s.q.CreateEvent(ctx, CreateEventParams{
		ID:        e.ID,
		Owner:     e.Owner,
		Type:      string(e.Type),
		Payload:   string(payload),
		CreatedAt: formatTime(e.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// PendingEvents returns up to limit unpublished events, oldest first.
func (s *Store) PendingEvents(ctx context.Context, limit int) ([]core.LedgerEvent, error) {
	rows, err := s.q.ListPendingEvents(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}
	out := make([]core.LedgerEvent, 0, len(rows))
	for _, r := range rows {
		e := core.LedgerEvent{
			ID:       r.ID,
			Owner:    r.Owner,
			Type:     core.EventType(r.Type),
			Status:   core.EventStatus(r.Status),
			Attempts: int(r.Attempts),
		}
		if err := json.Unmarshal([]byte(r.Payload), &e.Transaction); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", r.ID, err)
		}
		if e.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) MarkEventPublished(ctx context.Context, id string, at time.Time) error {
	if err := s.q.MarkEventPublished(ctx, nullString(formatTime(at)), id); err != nil {
		return fmt.Errorf("mark event published: %w", err)
	}
	return nil
}

func (s *Store) RecordEventAttempt(ctx context.Context, id string) error {
	if err := s.q.IncrementEventAttempts(ctx, id); err != nil {
		return fmt.Errorf("record event attempt: %w", err)
	}
	return nil
}

// PrunePublishedEvents deletes events published before cutoff.
func (s *Store) PrunePublishedEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.q.DeletePublishedEventsBefore(ctx, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune published events: %w", err)
	}
	return n, nil
}
