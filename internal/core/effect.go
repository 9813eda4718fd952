package core

import "github.com/shopspring/decimal"

// Delta is the signed balance change a transaction causes on its source
// account and, for transfers, on its destination account.
type Delta struct {
	Account   decimal.Decimal
	ToAccount decimal.Decimal
}

// Effect returns the balance deltas of a transaction. With reversal set the
// deltas are negated, undoing a previously applied effect.
func Effect(kind TransactionKind, amount decimal.Decimal, reversal bool) Delta {
	var d Delta
	switch kind {
	case Income:
		d.Account = amount
	case Expense:
		d.Account = amount.Neg()
	case Transfer:
		d.Account = amount.Neg()
		d.ToAccount = amount
	}
	if reversal {
		d.Account = d.Account.Neg()
		d.ToAccount = d.ToAccount.Neg()
	}
	return d
}

// EffectOf is Effect applied to a stored transaction.
func EffectOf(t Transaction, reversal bool) Delta {
	return Effect(t.Kind, t.Amount, reversal)
}
