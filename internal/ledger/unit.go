package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

// unit tracks the accounts touched by one engine operation. Balances are
// loaded once, adjusted in memory and written back by flush, so an account
// hit by both a reversal and an application sees both deltas.
type unit struct {
	ctx      context.Context
	tx       Tx
	owner    string
	now      time.Time
	newID    func() string
	accounts map[string]*core.Account
	dirty    []string
}

func (e *Engine) newUnit(ctx context.Context, tx Tx, owner string, now time.Time) *unit {
	return &unit{
		ctx:      ctx,
		tx:       tx,
		owner:    owner,
		now:      now,
		newID:    e.newID,
		accounts: make(map[string]*core.Account),
	}
}

func (u *unit) account(id string) (*core.Account, error) {
	if a, ok := u.accounts[id]; ok {
		return a, nil
	}
	a, err := u.tx.GetAccount(u.ctx, u.owner, id)
	if err != nil {
		return nil, err
	}
	u.accounts[id] = &a
	return &a, nil
}

func (u *unit) add(id string, delta decimal.Decimal) error {
	a, err := u.account(id)
	if err != nil {
		return err
	}
	if !slices.Contains(u.dirty, id) {
		u.dirty = append(u.dirty, id)
	}
	a.Balance = a.Balance.Add(delta)
	return nil
}

// validate checks t exactly as a new transaction: shape, account existence
// and ownership, amount precision against each account's currency, and
// category kind. Amounts are never rounded to fit.
func (u *unit) validate(t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := u.fits(t.Account, t.Amount); err != nil {
		return err
	}
	if t.Kind == core.Transfer {
		return u.fits(t.ToAccount, t.Amount)
	}

	cats, err := u.tx.CategoriesNamed(u.ctx, u.owner, t.Category)
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		return nil
	}
	for _, c := range cats {
		if c.Kind == t.Kind {
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not an %s category", core.ErrCategoryKind, t.Category, strings.ToLower(string(t.Kind)))
}

func (u *unit) fits(accountID string, amount decimal.Decimal) error {
	a, err := u.account(accountID)
	if err != nil {
		return err
	}
	return core.CheckAmountScale(amount, a.Currency)
}

func (u *unit) apply(t core.Transaction) error {
	d := core.EffectOf(t, false)
	if err := u.add(t.Account, d.Account); err != nil {
		return err
	}
	if t.Kind == core.Transfer {
		return u.add(t.ToAccount, d.ToAccount)
	}
	return nil
}

// reverse undoes t's effect. Strict mode treats a vanished account as a
// stale reference; lenient mode skips it and returns its id.
func (u *unit) reverse(t core.Transaction, strict bool) ([]string, error) {
	d := core.EffectOf(t, true)
	targets := []struct {
		id    string
		delta decimal.Decimal
	}{{t.Account, d.Account}}
	if t.Kind == core.Transfer {
		targets = append(targets, struct {
			id    string
			delta decimal.Decimal
		}{t.ToAccount, d.ToAccount})
	}

	var skipped []string
	for _, target := range targets {
		err := u.add(target.id, target.delta)
		switch {
		case err == nil:
		case errors.Is(err, core.ErrAccountNotFound) && !strict:
			skipped = append(skipped, target.id)
		case errors.Is(err, core.ErrAccountNotFound), errors.Is(err, core.ErrAccountNotOwned):
			return nil, fmt.Errorf("%w: transaction %s references account %s: %v", core.ErrStaleReference, t.ID, target.id, err)
		default:
			return nil, err
		}
	}
	return skipped, nil
}

func (u *unit) flush() error {
	for _, id := range u.dirty {
		if err := u.tx.SetAccountBalance(u.ctx, u.owner, id, u.accounts[id].Balance, u.now); err != nil {
			return err
		}
	}
	return nil
}

func (u *unit) emit(kind core.EventType, t core.Transaction) error {
	return u.tx.InsertEvent(u.ctx, core.LedgerEvent{
		ID:          u.newID(),
		Owner:       u.owner,
		Type:        kind,
		Transaction: t,
		Status:      core.EventPending,
		CreatedAt:   u.now,
	})
}

func (u *unit) audit(transactionID, action, detail string) error {
	return u.tx.InsertAuditEntry(u.ctx, core.AuditEntry{
		ID:            u.newID(),
		Owner:         u.owner,
		TransactionID: transactionID,
		Action:        action,
		Detail:        detail,
		CreatedAt:     u.now,
	})
}
