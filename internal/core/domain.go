package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income   TransactionKind = "Income"
	Expense  TransactionKind = "Expense"
	Transfer TransactionKind = "Transfer"
)

const (
	Cash       AccountKind = "Cash"
	Bank       AccountKind = "Bank"
	CreditCard AccountKind = "CreditCard"
	Savings    AccountKind = "Savings"
	Investment AccountKind = "Investment"
	Other      AccountKind = "Other"
)

const (
	Mensual Frequency = "Mensual"
	Anual   Frequency = "Anual"
)

// SubscriptionCategory is the category stamped on transactions materialized from a subscription.
const SubscriptionCategory = "Subscription"

const maxDescriptionLen = 200

type (
	TransactionKind string
	AccountKind     string
	Frequency       string

	Date struct {
		time.Time
	}

	Account struct {
		ID        string          `json:"id"`
		Owner     string          `json:"owner"`
		Name      string          `json:"name"`
		Kind      AccountKind     `json:"kind"`
		Balance   decimal.Decimal `json:"balance"`
		Currency  string          `json:"currency"`
		CreatedAt time.Time       `json:"createdAt"`
		UpdatedAt time.Time       `json:"updatedAt"`
	}

	Transaction struct {
		ID              string          `json:"id"`
		Owner           string          `json:"owner"`
		Account         string          `json:"account"`
		Kind            TransactionKind `json:"type"`
		Category        string          `json:"category,omitempty"`
		Description     string          `json:"description,omitempty"`
		Amount          decimal.Decimal `json:"amount"`
		Date            Date            `json:"date"`
		ToAccount       string          `json:"toAccount,omitempty"`
		SubscriptionRef string          `json:"subscriptionRef,omitempty"`
		CreatedAt       time.Time       `json:"createdAt"`
		UpdatedAt       time.Time       `json:"updatedAt"`
	}

	SavingGoal struct {
		ID            string          `json:"id"`
		Owner         string          `json:"owner"`
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
		DueDate       Date            `json:"dueDate"`
		CreatedAt     time.Time       `json:"createdAt"`
		UpdatedAt     time.Time       `json:"updatedAt"`
	}

	Subscription struct {
		ID              string          `json:"id"`
		Owner           string          `json:"owner"`
		Name            string          `json:"name"`
		Amount          decimal.Decimal `json:"amount"`
		NextBillingDate Date            `json:"nextBillingDate"`
		BillingDay      int             `json:"billingDay,omitempty"`
		Frequency       Frequency       `json:"frequency"`
		Notes           string          `json:"notes,omitempty"`
		DefaultAccount  string          `json:"defaultAccount,omitempty"`
		CreatedAt       time.Time       `json:"createdAt"`
		UpdatedAt       time.Time       `json:"updatedAt"`
	}

	Category struct {
		ID    string          `json:"id"`
		Owner string          `json:"owner"`
		Name  string          `json:"name"`
		Kind  TransactionKind `json:"kind"`
	}

	// AuditEntry records a balance correction the ledger deliberately skipped.
	AuditEntry struct {
		ID            string    `json:"id"`
		Owner         string    `json:"owner"`
		TransactionID string    `json:"transactionId"`
		Action        string    `json:"action"`
		Detail        string    `json:"detail"`
		CreatedAt     time.Time `json:"createdAt"`
	}
)

// ParseTransactionKind accepts any casing of the three kinds.
func ParseTransactionKind(s string) (TransactionKind, error) {
	for _, k := range []TransactionKind{Income, Expense, Transfer} {
		if strings.EqualFold(strings.TrimSpace(s), string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

func (k TransactionKind) Valid() bool {
	switch k {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

func ParseAccountKind(s string) (AccountKind, error) {
	for _, k := range []AccountKind{Cash, Bank, CreditCard, Savings, Investment, Other} {
		if strings.EqualFold(strings.TrimSpace(s), string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAccountKind, s)
}

func ParseFrequency(s string) (Frequency, error) {
	for _, f := range []Frequency{Mensual, Anual} {
		if strings.EqualFold(strings.TrimSpace(s), string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		if string(b) == "null" {
			*d = Date{}
			return nil
		}
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		// Accept full timestamps as sent by browser clients.
		t, terr := time.Parse(time.RFC3339, s)
		if terr != nil {
			return err
		}
		parsed = DateOf(t)
	}
	*d = parsed
	return nil
}

func (a Account) Validate() error {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if _, err := ParseAccountKind(string(a.Kind)); err != nil {
		return err
	}
	return ValidateCurrency(a.Currency)
}

// Validate checks the shape of a transaction. Ownership and existence of the
// referenced accounts are the ledger's concern.
func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, t.Kind)
	}
	if strings.TrimSpace(t.Account) == "" {
		return fmt.Errorf("%w: source account is required", ErrAccountNotFound)
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > maxDescriptionLen {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Kind == Transfer {
		if strings.TrimSpace(t.ToAccount) == "" {
			return fmt.Errorf("%w: destination account is required", ErrInvalidTransfer)
		}
		if t.ToAccount == t.Account {
			return fmt.Errorf("%w: destination equals source", ErrInvalidTransfer)
		}
		return nil
	}
	if t.ToAccount != "" {
		return fmt.Errorf("%w: only transfers carry a destination account", ErrInvalidTransfer)
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrMissingCategory
	}
	return nil
}

// IsCompleted is derived from the amounts and never stored.
func (g SavingGoal) IsCompleted() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

func (g SavingGoal) MarshalJSON() ([]byte, error) {
	type plain SavingGoal
	return json.Marshal(struct {
		plain
		IsCompleted bool `json:"isCompleted"`
	}{plain: plain(g), IsCompleted: g.IsCompleted()})
}

func (g SavingGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.TargetAmount.IsPositive() {
		return fmt.Errorf("%w: target amount must be greater than zero", ErrInvalidAmount)
	}
	if g.CurrentAmount.IsNegative() {
		return fmt.Errorf("%w: current amount cannot be negative", ErrInvalidAmount)
	}
	return nil
}

func (s Subscription) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if !s.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := s.NextBillingDate.Validate(); err != nil {
		return err
	}
	if _, err := ParseFrequency(string(s.Frequency)); err != nil {
		return err
	}
	return nil
}

// AnchorDay is the day of month billing returns to after being clamped into
// a shorter month. Without a stored anchor it is the next billing date's day.
func (s Subscription) AnchorDay() int {
	if s.BillingDay > 0 {
		return s.BillingDay
	}
	return s.NextBillingDate.Day()
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Kind != Income && c.Kind != Expense {
		return fmt.Errorf("%w: categories are Income or Expense", ErrInvalidKind)
	}
	return nil
}
