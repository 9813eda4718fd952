// Package sheets mirrors the ledger into a spreadsheet for people who read
// their finances there. The mirror is write-only from the ledger's side and
// never feeds back into balances.
package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

// Header is the first row of a mirror sheet; columns follow MirrorRow.Values.
var Header = []string{
	"Transaction ID", "Date", "Type", "Account", "To Account", "Category",
	"Description", "Amount", "Subscription", "Owner", "Updated At",
}

// MirrorRow is one transaction as it appears in the sheet.
type MirrorRow struct {
	TransactionID   string
	Date            string
	Kind            string
	Account         string
	ToAccount       string
	Category        string
	Description     string
	Amount          string
	SubscriptionRef string
	Owner           string
	UpdatedAt       string
}

func RowFromTransaction(t core.Transaction) MirrorRow {
	return MirrorRow{
		TransactionID:   t.ID,
		Date:            t.Date.String(),
		Kind:            string(t.Kind),
		Account:         t.Account,
		ToAccount:       t.ToAccount,
		Category:        t.Category,
		Description:     t.Description,
		Amount:          formatAmount(t.Amount),
		SubscriptionRef: t.SubscriptionRef,
		Owner:           t.Owner,
		UpdatedAt:       t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// formatAmount shows at least two decimals and never drops a significant one.
func formatAmount(d decimal.Decimal) string {
	places := int32(2)
	if e := -d.Exponent(); e > places {
		places = e
	}
	return d.StringFixed(places)
}

func (r MirrorRow) Values() []string {
	return []string{
		r.TransactionID, r.Date, r.Kind, r.Account, r.ToAccount, r.Category,
		r.Description, r.Amount, r.SubscriptionRef, r.Owner, r.UpdatedAt,
	}
}

// RowFromValues rebuilds a row read back from a sheet. Short rows are padded;
// a row without a transaction id is rejected.
func RowFromValues(values []string) (MirrorRow, error) {
	get := func(i int) string {
		if i < len(values) {
			return strings.TrimSpace(values[i])
		}
		return ""
	}
	r := MirrorRow{
		TransactionID:   get(0),
		Date:            get(1),
		Kind:            get(2),
		Account:         get(3),
		ToAccount:       get(4),
		Category:        get(5),
		Description:     get(6),
		Amount:          get(7),
		SubscriptionRef: get(8),
		Owner:           get(9),
		UpdatedAt:       get(10),
	}
	if r.TransactionID == "" {
		return MirrorRow{}, fmt.Errorf("row without transaction id")
	}
	return r, nil
}

// LedgerMirror is the outbound port the mirror worker writes to. Both calls
// are idempotent so redelivered events are harmless.
type LedgerMirror interface {
	// Upsert writes the row, replacing any row with the same transaction id.
	Upsert(ctx context.Context, row MirrorRow) error
	// Remove deletes the row for transactionID; a missing row is not an error.
	Remove(ctx context.Context, transactionID string) error
}

// MirrorReader lists what the mirror currently holds.
type MirrorReader interface {
	Rows(ctx context.Context) ([]MirrorRow, error)
}
