// Package ledger keeps account balances consistent with the transactions
// recorded against them. Every mutation of a transaction or a subscription
// charge goes through Engine, which locks the affected accounts, runs one
// store unit of work, and records an outbox event in that same unit.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"finanzas/internal/core"
	"finanzas/internal/log"
)

// DefaultTimeout bounds an operation when no WithTimeout option is given.
const DefaultTimeout = 5 * time.Second

// Audit actions recorded by the engine.
const (
	AuditSkippedReversal = "skipped_reversal"
)

var errAccountsMoved = errors.New("transaction accounts changed while waiting for locks")

const maxLockRetries = 3

// Engine applies, updates and deletes transactions and charges
// subscriptions, keeping account balances equal to the sum of their
// transactions. It is safe for concurrent use.
type Engine struct {
	store   Store
	locker  Locker
	timeout time.Duration
	now     func() time.Time
	newID   func() string
	hooks   []func(ctx context.Context, owner string)
	logger  *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds every operation, lock waits included.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithCommitHook registers fn to run after every committed operation.
func WithCommitHook(fn func(ctx context.Context, owner string)) Option {
	return func(e *Engine) { e.hooks = append(e.hooks, fn) }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l.WithComponent(log.ComponentLedger) }
}

type passthroughLocker struct{}

func (passthroughLocker) WithLocks(ctx context.Context, _ []string, fn func(context.Context) error) error {
	return fn(ctx)
}

// NewEngine creates an engine over store. A nil locker runs operations
// without locks, which is only safe with a single writer.
func NewEngine(store Store, locker Locker, opts ...Option) *Engine {
	if locker == nil {
		locker = passthroughLocker{}
	}
	e := &Engine{
		store:   store,
		locker:  locker,
		timeout: DefaultTimeout,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  log.FromContext(context.Background()).WithComponent(log.ComponentLedger),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AccountKey is the lock key the engine takes for an account. Callers that
// mutate accounts outside the engine take the same key.
func AccountKey(id string) string { return "account:" + id }

// SubscriptionKey is the lock key for a subscription's billing state.
func SubscriptionKey(id string) string { return "subscription:" + id }

func transactionKeys(ts ...core.Transaction) []string {
	var keys []string
	for _, t := range ts {
		if t.Account != "" {
			keys = append(keys, AccountKey(t.Account))
		}
		if t.ToAccount != "" {
			keys = append(keys, AccountKey(t.ToAccount))
		}
	}
	return keys
}

func sameAccounts(a, b core.Transaction) bool {
	return a.Account == b.Account && a.ToAccount == b.ToAccount
}

// run executes fn under the given locks inside one store unit, bounded by the
// engine timeout.
func (e *Engine) run(ctx context.Context, op string, keys []string, fn func(ctx context.Context, tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	err := e.locker.WithLocks(ctx, keys, func(ctx context.Context) error {
		return e.store.Atomic(ctx, func(tx Tx) error {
			return fn(ctx, tx)
		})
	})
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %s after %s: %v", core.ErrOperationTimeout, op, e.timeout, err)
	}
	return err
}

func (e *Engine) committed(ctx context.Context, owner string) {
	for _, h := range e.hooks {
		h(ctx, owner)
	}
}

func (e *Engine) logFailure(ctx context.Context, op, owner string, err error) {
	if errors.Is(err, errAccountsMoved) {
		return
	}
	class := core.Classify(err)
	fields := log.NewFields().WithOwner(owner).WithError(err, string(class)).WithOperation(op)
	if class == core.ClassFatal {
		e.logger.ErrorContext(ctx, "Ledger operation aborted", fields.ToSlice()...)
		return
	}
	e.logger.DebugContext(ctx, "Ledger operation rejected", fields.ToSlice()...)
}

func logTransaction(t core.Transaction) log.LogFields {
	return log.NewFields().
		WithOwner(t.Owner).
		WithTransaction(t.ID, string(t.Kind), t.Amount.String(), t.Account, t.ToAccount)
}

func normalizeDraft(t core.Transaction) core.Transaction {
	t.Category = strings.TrimSpace(t.Category)
	t.Description = strings.TrimSpace(t.Description)
	t.Account = strings.TrimSpace(t.Account)
	t.ToAccount = strings.TrimSpace(t.ToAccount)
	return t
}

// Apply validates draft and records it, moving the balances of its account
// (and destination, for transfers). Nothing is persisted unless every step
// succeeds. A zero draft date means today.
func (e *Engine) Apply(ctx context.Context, owner string, draft core.Transaction) (core.Transaction, error) {
	now := e.now()
	t := normalizeDraft(draft)
	t.ID = e.newID()
	t.Owner = owner
	if t.Date.IsZero() {
		t.Date = core.DateOf(now)
	}
	t.CreatedAt, t.UpdatedAt = now, now

	err := e.run(ctx, log.OpApply, transactionKeys(t), func(ctx context.Context, tx Tx) error {
		u := e.newUnit(ctx, tx, owner, now)
		if err := u.validate(t); err != nil {
			return err
		}
		if err := u.apply(t); err != nil {
			return err
		}
		if err := u.flush(); err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		return u.emit(core.EventTransactionCreated, t)
	})
	if err != nil {
		e.logFailure(ctx, log.OpApply, owner, err)
		return core.Transaction{}, err
	}

	e.logger.InfoContext(ctx, "Transaction applied", logTransaction(t).ToSlice()...)
	e.committed(ctx, owner)
	return t, nil
}

// Update replaces a transaction's fields with patch merged over the stored
// record. The old effect is reversed in full, the merged record is
// validated as a new transaction and its effect applied. The whole sequence
// is one unit: if the merged record is invalid, balances and record stay as
// they were.
func (e *Engine) Update(ctx context.Context, owner, id string, patch Patch) (core.Transaction, error) {
	var out core.Transaction
	err := e.retryMoved(ctx, owner, id, log.OpUpdate, func(peeked core.Transaction) ([]string, func(context.Context, Tx) error) {
		keys := transactionKeys(peeked, normalizeDraft(patch.Merge(peeked)))
		return keys, func(ctx context.Context, tx Tx) error {
			now := e.now()
			old, err := tx.GetTransaction(ctx, owner, id)
			if err != nil {
				return err
			}
			if !sameAccounts(old, peeked) {
				return errAccountsMoved
			}

			next := normalizeDraft(patch.Merge(old))
			next.UpdatedAt = now

			u := e.newUnit(ctx, tx, owner, now)
			if _, err := u.reverse(old, true); err != nil {
				return err
			}
			if err := u.validate(next); err != nil {
				return err
			}
			if err := u.apply(next); err != nil {
				return err
			}
			if err := u.flush(); err != nil {
				return err
			}
			if err := tx.UpdateTransaction(ctx, owner, next); err != nil {
				return err
			}
			out = next
			return u.emit(core.EventTransactionUpdated, next)
		}
	})
	if err != nil {
		e.logFailure(ctx, log.OpUpdate, owner, err)
		return core.Transaction{}, err
	}

	e.logger.InfoContext(ctx, "Transaction updated", logTransaction(out).ToSlice()...)
	e.committed(ctx, owner)
	return out, nil
}

// Delete reverses a transaction's effect and removes it. An account that no
// longer exists is skipped and the skipped correction is written to the
// audit log; the record is removed regardless.
func (e *Engine) Delete(ctx context.Context, owner, id string) (core.Transaction, error) {
	var out core.Transaction
	err := e.retryMoved(ctx, owner, id, log.OpDelete, func(peeked core.Transaction) ([]string, func(context.Context, Tx) error) {
		return transactionKeys(peeked), func(ctx context.Context, tx Tx) error {
			now := e.now()
			old, err := tx.GetTransaction(ctx, owner, id)
			if err != nil {
				return err
			}
			if !sameAccounts(old, peeked) {
				return errAccountsMoved
			}

			u := e.newUnit(ctx, tx, owner, now)
			skipped, err := u.reverse(old, false)
			if err != nil {
				return err
			}
			for _, accountID := range skipped {
				d := core.EffectOf(old, true)
				delta := d.Account
				if accountID == old.ToAccount {
					delta = d.ToAccount
				}
				detail := fmt.Sprintf("account %s no longer exists; correction of %s not applied", accountID, delta)
				if err := u.audit(old.ID, AuditSkippedReversal, detail); err != nil {
					return err
				}
				e.logger.WarnContext(ctx, "Skipped balance correction for missing account",
					logTransaction(old).WithOperation(log.OpDelete).ToSlice()...)
			}
			if err := u.flush(); err != nil {
				return err
			}
			if err := tx.DeleteTransaction(ctx, owner, old.ID); err != nil {
				return err
			}
			out = old
			return u.emit(core.EventTransactionDeleted, old)
		}
	})
	if err != nil {
		e.logFailure(ctx, log.OpDelete, owner, err)
		return core.Transaction{}, err
	}

	e.logger.InfoContext(ctx, "Transaction deleted", logTransaction(out).ToSlice()...)
	e.committed(ctx, owner)
	return out, nil
}

// retryMoved peeks at the stored transaction to learn which accounts to
// lock, then runs the unit built for that snapshot. If the accounts changed
// before the locks were granted it starts over.
func (e *Engine) retryMoved(ctx context.Context, owner, id, op string, build func(core.Transaction) ([]string, func(context.Context, Tx) error)) error {
	var err error
	for attempt := 0; attempt < maxLockRetries; attempt++ {
		var peeked core.Transaction
		peekCtx, cancel := context.WithTimeout(ctx, e.timeout)
		err = e.store.Atomic(peekCtx, func(tx Tx) error {
			var err error
			peeked, err = tx.GetTransaction(peekCtx, owner, id)
			return err
		})
		cancel()
		if err != nil {
			return err
		}

		keys, fn := build(peeked)
		err = e.run(ctx, op, keys, fn)
		if !errors.Is(err, errAccountsMoved) {
			return err
		}
	}
	return fmt.Errorf("%w: %s", core.ErrOperationTimeout, err)
}

// ChargeSubscription materializes one billing period of a subscription as an
// Expense on accountID and advances the subscription's next billing date by
// one period. Both happen or neither does. A zero date bills on the
// subscription's current next billing date.
func (e *Engine) ChargeSubscription(ctx context.Context, owner, subscriptionID, accountID string, date core.Date) (core.Transaction, core.Subscription, error) {
	return e.charge(ctx, owner, subscriptionID, accountID, date, core.Date{})
}

// ChargeDue charges the subscription's current period only if it is due on
// asOf, checked under the subscription lock. A subscription billed ahead of
// asOf yields core.ErrNotDue, so concurrent billing runs never charge the
// same period twice.
func (e *Engine) ChargeDue(ctx context.Context, owner, subscriptionID, accountID string, asOf core.Date) (core.Transaction, core.Subscription, error) {
	return e.charge(ctx, owner, subscriptionID, accountID, core.Date{}, asOf)
}

func (e *Engine) charge(ctx context.Context, owner, subscriptionID, accountID string, date, dueBy core.Date) (core.Transaction, core.Subscription, error) {
	var (
		charged core.Transaction
		sub     core.Subscription
	)
	accountID = strings.TrimSpace(accountID)
	keys := []string{AccountKey(accountID), SubscriptionKey(subscriptionID)}

	err := e.run(ctx, log.OpCharge, keys, func(ctx context.Context, tx Tx) error {
		now := e.now()
		var err error
		sub, err = tx.GetSubscription(ctx, owner, subscriptionID)
		if err != nil {
			return err
		}
		if !dueBy.IsZero() && sub.NextBillingDate.After(dueBy.Time) {
			return fmt.Errorf("%w: next billing %s", core.ErrNotDue, sub.NextBillingDate)
		}

		billed := date
		if billed.IsZero() {
			billed = sub.NextBillingDate
		}
		t := core.Transaction{
			ID:              e.newID(),
			Owner:           owner,
			Account:         accountID,
			Kind:            core.Expense,
			Category:        core.SubscriptionCategory,
			Description:     sub.Name,
			Amount:          sub.Amount,
			Date:            billed,
			SubscriptionRef: sub.ID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		next, err := core.NextBillingDate(sub.Frequency, sub.NextBillingDate, sub.AnchorDay())
		if err != nil {
			return err
		}

		u := e.newUnit(ctx, tx, owner, now)
		if err := u.validate(t); err != nil {
			return err
		}
		if err := u.apply(t); err != nil {
			return err
		}
		if err := u.flush(); err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		if err := tx.SetNextBillingDate(ctx, owner, sub.ID, next, now); err != nil {
			return err
		}
		sub.NextBillingDate = next
		sub.UpdatedAt = now
		charged = t
		return u.emit(core.EventSubscriptionCharge, t)
	})
	if err != nil {
		e.logFailure(ctx, log.OpCharge, owner, err)
		return core.Transaction{}, core.Subscription{}, err
	}

	e.logger.InfoContext(ctx, "Subscription charged",
		logTransaction(charged).ToSlice()...)
	e.committed(ctx, owner)
	return charged, sub, nil
}
