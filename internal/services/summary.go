package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/cache"
	"finanzas/internal/core"
	"finanzas/internal/log"
)

// UnknownCurrency labels totals of transactions whose account is gone.
const UnknownCurrency = "???"

type CategoryTotal struct {
	Kind     core.TransactionKind `json:"kind"`
	Category string               `json:"category"`
	Total    decimal.Decimal      `json:"total"`
	Count    int                  `json:"count"`
}

// CurrencyTotals never mixes currencies: each account's transactions count
// toward that account's currency.
type CurrencyTotals struct {
	Currency   string          `json:"currency"`
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	Transfers  decimal.Decimal `json:"transfers"`
	Net        decimal.Decimal `json:"net"`
	ByCategory []CategoryTotal `json:"byCategory"`
}

type MonthlySummary struct {
	Owner        string           `json:"owner"`
	Year         int              `json:"year"`
	Month        int              `json:"month"`
	Transactions int              `json:"transactions"`
	Currencies   []CurrencyTotals `json:"currencies"`
}

type AccountLister interface {
	ListAccounts(ctx context.Context, owner string) ([]core.Account, error)
}

// SummaryService builds monthly summaries and caches them until the owner's
// ledger changes.
type SummaryService struct {
	transactions TransactionReader
	accounts     AccountLister
	loader       *cache.Loader[MonthlySummary]
}

func NewSummaryService(transactions TransactionReader, accounts AccountLister, c cache.Cache[MonthlySummary]) *SummaryService {
	if c == nil {
		c = cache.NewLRUCache[MonthlySummary](256, 5*time.Minute)
	}
	return &SummaryService{
		transactions: transactions,
		accounts:     accounts,
		loader:       cache.NewLoader(c),
	}
}

func summaryPrefix(owner string) string { return owner + "|" }

func (s *SummaryService) Monthly(ctx context.Context, owner string, year, month int) (MonthlySummary, error) {
	if month < 1 || month > 12 || year < 1 || year > 9999 {
		return MonthlySummary{}, fmt.Errorf("%w: month %d-%d", core.ErrInvalidDate, year, month)
	}
	key := fmt.Sprintf("%s%04d-%02d", summaryPrefix(owner), year, month)
	return s.loader.Get(ctx, key, func(ctx context.Context) (MonthlySummary, error) {
		return s.build(ctx, owner, year, month)
	})
}

// Invalidate drops the owner's cached summaries. Its signature matches
// ledger.WithCommitHook.
func (s *SummaryService) Invalidate(ctx context.Context, owner string) {
	if n := s.loader.Invalidate(summaryPrefix(owner)); n > 0 {
		log.FromContext(ctx).WithComponent(log.ComponentCache).DebugContext(ctx,
			"Summary cache invalidated", log.FieldOwner, owner, "entries", n)
	}
}

func (s *SummaryService) build(ctx context.Context, owner string, year, month int) (MonthlySummary, error) {
	from := core.NewDate(year, month, 1)
	to := core.DateOf(from.AddDate(0, 1, 0))

	txs, err := s.transactions.TransactionsBetween(ctx, owner, from, to)
	if err != nil {
		return MonthlySummary{}, err
	}
	accounts, err := s.accounts.ListAccounts(ctx, owner)
	if err != nil {
		return MonthlySummary{}, err
	}
	currencyOf := make(map[string]string, len(accounts))
	for _, a := range accounts {
		currencyOf[a.ID] = a.Currency
	}

	type catKey struct {
		kind     core.TransactionKind
		category string
	}
	totals := map[string]*CurrencyTotals{}
	cats := map[string]map[catKey]*CategoryTotal{}

	for _, t := range txs {
		cur, ok := currencyOf[t.Account]
		if !ok {
			cur = UnknownCurrency
		}
		ct, ok := totals[cur]
		if !ok {
			ct = &CurrencyTotals{Currency: cur}
			totals[cur] = ct
			cats[cur] = map[catKey]*CategoryTotal{}
		}
		switch t.Kind {
		case core.Income:
			ct.Income = ct.Income.Add(t.Amount)
		case core.Expense:
			ct.Expense = ct.Expense.Add(t.Amount)
		case core.Transfer:
			ct.Transfers = ct.Transfers.Add(t.Amount)
			continue
		}
		k := catKey{t.Kind, t.Category}
		c, ok := cats[cur][k]
		if !ok {
			c = &CategoryTotal{Kind: t.Kind, Category: t.Category}
			cats[cur][k] = c
		}
		c.Total = c.Total.Add(t.Amount)
		c.Count++
	}

	out := MonthlySummary{Owner: owner, Year: year, Month: month, Transactions: len(txs)}
	for cur, ct := range totals {
		ct.Net = ct.Income.Sub(ct.Expense)
		ct.ByCategory = make([]CategoryTotal, 0, len(cats[cur]))
		for _, c := range cats[cur] {
			ct.ByCategory = append(ct.ByCategory, *c)
		}
		sort.Slice(ct.ByCategory, func(i, j int) bool {
			a, b := ct.ByCategory[i], ct.ByCategory[j]
			if a.Kind != b.Kind {
				return a.Kind < b.Kind
			}
			return a.Category < b.Category
		})
		out.Currencies = append(out.Currencies, *ct)
	}
	sort.Slice(out.Currencies, func(i, j int) bool {
		return out.Currencies[i].Currency < out.Currencies[j].Currency
	})
	return out, nil
}
