package storage

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func formatDate(d core.Date) string {
	return d.Format(time.DateOnly)
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}

func toCoreAccount(a Account) (core.Account, error) {
	balance, err := parseDecimal("balance", a.Balance)
	if err != nil {
		return core.Account{}, err
	}
	created, err := parseTime(a.CreatedAt)
	if err != nil {
		return core.Account{}, err
	}
	updated, err := parseTime(a.UpdatedAt)
	if err != nil {
		return core.Account{}, err
	}
	return core.Account{
		ID:        a.ID,
		Owner:     a.Owner,
		Name:      a.Name,
		Kind:      core.AccountKind(a.Kind),
		Balance:   balance,
		Currency:  a.Currency,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func toCoreTransaction(t Transaction) (core.Transaction, error) {
	amount, err := parseDecimal("amount", t.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(t.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	created, err := parseTime(t.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	updated, err := parseTime(t.UpdatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:              t.ID,
		Owner:           t.Owner,
		Account:         t.AccountID,
		Kind:            core.TransactionKind(t.Kind),
		Category:        t.Category,
		Description:     t.Description,
		Amount:          amount,
		Date:            date,
		ToAccount:       t.ToAccountID.String,
		SubscriptionRef: t.SubscriptionID.String,
		CreatedAt:       created,
		UpdatedAt:       updated,
	}, nil
}

func fromCoreTransaction(t core.Transaction) Transaction {
	return Transaction{
		ID:             t.ID,
		Owner:          t.Owner,
		AccountID:      t.Account,
		Kind:           string(t.Kind),
		Category:       t.Category,
		Description:    t.Description,
		Amount:         t.Amount.String(),
		Date:           formatDate(t.Date),
		ToAccountID:    nullString(t.ToAccount),
		SubscriptionID: nullString(t.SubscriptionRef),
		CreatedAt:      formatTime(t.CreatedAt),
		UpdatedAt:      formatTime(t.UpdatedAt),
	}
}

func toCoreSubscription(s Subscription) (core.Subscription, error) {
	amount, err := parseDecimal("amount", s.Amount)
	if err != nil {
		return core.Subscription{}, err
	}
	next, err := parseDate(s.NextBillingDate)
	if err != nil {
		return core.Subscription{}, err
	}
	created, err := parseTime(s.CreatedAt)
	if err != nil {
		return core.Subscription{}, err
	}
	updated, err := parseTime(s.UpdatedAt)
	if err != nil {
		return core.Subscription{}, err
	}
	return core.Subscription{
		ID:              s.ID,
		Owner:           s.Owner,
		Name:            s.Name,
		Amount:          amount,
		NextBillingDate: next,
		BillingDay:      int(s.BillingDay),
		Frequency:       core.Frequency(s.Frequency),
		Notes:           s.Notes,
		DefaultAccount:  s.DefaultAccountID.String,
		CreatedAt:       created,
		UpdatedAt:       updated,
	}, nil
}

func fromCoreSubscription(s core.Subscription) Subscription {
	return Subscription{
		ID:               s.ID,
		Owner:            s.Owner,
		Name:             s.Name,
		Amount:           s.Amount.String(),
		NextBillingDate:  formatDate(s.NextBillingDate),
		BillingDay:       int64(s.AnchorDay()),
		Frequency:        string(s.Frequency),
		Notes:            s.Notes,
		DefaultAccountID: nullString(s.DefaultAccount),
		CreatedAt:        formatTime(s.CreatedAt),
		UpdatedAt:        formatTime(s.UpdatedAt),
	}
}

func toCoreGoal(g SavingGoal) (core.SavingGoal, error) {
	target, err := parseDecimal("target_amount", g.TargetAmount)
	if err != nil {
		return core.SavingGoal{}, err
	}
	current, err := parseDecimal("current_amount", g.CurrentAmount)
	if err != nil {
		return core.SavingGoal{}, err
	}
	var due core.Date
	if g.DueDate.Valid {
		if due, err = parseDate(g.DueDate.String); err != nil {
			return core.SavingGoal{}, err
		}
	}
	created, err := parseTime(g.CreatedAt)
	if err != nil {
		return core.SavingGoal{}, err
	}
	updated, err := parseTime(g.UpdatedAt)
	if err != nil {
		return core.SavingGoal{}, err
	}
	return core.SavingGoal{
		ID:            g.ID,
		Owner:         g.Owner,
		Name:          g.Name,
		TargetAmount:  target,
		CurrentAmount: current,
		DueDate:       due,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}, nil
}

func fromCoreGoal(g core.SavingGoal) SavingGoal {
	row := SavingGoal{
		ID:            g.ID,
		Owner:         g.Owner,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount.String(),
		CurrentAmount: g.CurrentAmount.String(),
		CreatedAt:     formatTime(g.CreatedAt),
		UpdatedAt:     formatTime(g.UpdatedAt),
	}
	if !g.DueDate.IsZero() {
		row.DueDate = nullString(formatDate(g.DueDate))
	}
	return row
}

func toCoreCategory(c Category) core.Category {
	return core.Category{
		ID:    c.ID,
		Owner: c.Owner,
		Name:  c.Name,
		Kind:  core.TransactionKind(c.Kind),
	}
}

func toCoreAudit(a LedgerAudit) (core.AuditEntry, error) {
	created, err := parseTime(a.CreatedAt)
	if err != nil {
		return core.AuditEntry{}, err
	}
	return core.AuditEntry{
		ID:            a.ID,
		Owner:         a.Owner,
		TransactionID: a.TransactionID,
		Action:        a.Action,
		Detail:        a.Detail,
		CreatedAt:     created,
	}, nil
}
