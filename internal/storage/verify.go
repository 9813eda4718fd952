package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

// BalanceCheck compares an account's stored balance with the balance implied
// by its opening balance and every transaction that touches it.
type BalanceCheck struct {
	AccountID string
	Owner     string
	Name      string
	Currency  string
	Stored    decimal.Decimal
	Expected  decimal.Decimal
}

func (c BalanceCheck) Drift() decimal.Decimal {
	return c.Stored.Sub(c.Expected)
}

func (c BalanceCheck) OK() bool {
	return c.Stored.Equal(c.Expected)
}

// VerifyBalances recomputes every account's balance from the ledger.
func (s *Store) VerifyBalances(ctx context.Context) ([]BalanceCheck, error) {
	accounts, err := s.q.ListAllAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	checks := make([]BalanceCheck, 0, len(accounts))
	for _, a := range accounts {
		stored, err := parseDecimal("balance", a.Balance)
		if err != nil {
			return nil, err
		}
		expected, err := parseDecimal("opening_balance", a.OpeningBalance)
		if err != nil {
			return nil, err
		}

		rows, err := s.q.ListTransactionsTouchingAccount(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("list transactions for %s: %w", a.ID, err)
		}
		for _, r := range rows {
			t, err := toCoreTransaction(r)
			if err != nil {
				return nil, err
			}
			delta := core.EffectOf(t, false)
			if t.Account == a.ID {
				expected = expected.Add(delta.Account)
			}
			if t.ToAccount == a.ID {
				expected = expected.Add(delta.ToAccount)
			}
		}

		checks = append(checks, BalanceCheck{
			AccountID: a.ID,
			Owner:     a.Owner,
			Name:      a.Name,
			Currency:  a.Currency,
			Stored:    stored,
			Expected:  expected,
		})
	}
	return checks, nil
}
