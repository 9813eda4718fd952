package ledger

import (
	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

// Patch is a partial transaction update. Nil fields keep the stored value.
type Patch struct {
	Account     *string
	Kind        *core.TransactionKind
	Category    *string
	Description *string
	Amount      *decimal.Decimal
	Date        *core.Date
	ToAccount   *string
}

// Merge overlays the patch on t. When the resulting kind is not a transfer
// and the patch does not name a destination, the destination is dropped.
func (p Patch) Merge(t core.Transaction) core.Transaction {
	if p.Account != nil {
		t.Account = *p.Account
	}
	if p.Kind != nil {
		t.Kind = *p.Kind
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil && !p.Date.IsZero() {
		t.Date = *p.Date
	}
	if p.ToAccount != nil {
		t.ToAccount = *p.ToAccount
	} else if t.Kind != core.Transfer {
		t.ToAccount = ""
	}
	return t
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Account == nil && p.Kind == nil && p.Category == nil && p.Description == nil &&
		p.Amount == nil && p.Date == nil && p.ToAccount == nil
}
