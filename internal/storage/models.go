package storage

import "database/sql"

// Row types mirror the tables one to one. Amounts are decimal strings and
// timestamps RFC 3339 strings; conversion to domain types lives in convert.go.

type Account struct {
	ID             string
	Owner          string
	Name           string
	Kind           string
	Balance        string
	OpeningBalance string
	Currency       string
	CreatedAt      string
	UpdatedAt      string
}

type Transaction struct {
	ID             string
	Owner          string
	AccountID      string
	Kind           string
	Category       string
	Description    string
	Amount         string
	Date           string
	ToAccountID    sql.NullString
	SubscriptionID sql.NullString
	CreatedAt      string
	UpdatedAt      string
}

type Subscription struct {
	ID               string
	Owner            string
	Name             string
	Amount           string
	NextBillingDate  string
	BillingDay       int64
	Frequency        string
	Notes            string
	DefaultAccountID sql.NullString
	CreatedAt        string
	UpdatedAt        string
}

type SavingGoal struct {
	ID            string
	Owner         string
	Name          string
	TargetAmount  string
	CurrentAmount string
	DueDate       sql.NullString
	CreatedAt     string
	UpdatedAt     string
}

type Category struct {
	ID    string
	Owner string
	Name  string
	Kind  string
}

type LedgerAudit struct {
	ID            string
	Owner         string
	TransactionID string
	Action        string
	Detail        string
	CreatedAt     string
}

type LedgerEvent struct {
	ID          string
	Owner       string
	Type        string
	Payload     string
	Status      string
	Attempts    int64
	CreatedAt   string
	PublishedAt sql.NullString
}
