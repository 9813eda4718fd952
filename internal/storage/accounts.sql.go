package storage

import (
	"context"
)

const accountColumns = `id, owner, name, kind, balance, opening_balance, currency, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (Account, error) {
	var a Account
	err := row.Scan(
		&a.ID,
		&a.Owner,
		&a.Name,
		&a.Kind,
		&a.Balance,
		&a.OpeningBalance,
		&a.Currency,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

const createAccount = `INSERT INTO accounts (` + accountColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateAccountParams struct {
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

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) error {
	_, err := q.db.ExecContext(ctx, createAccount,
		arg.ID,
		arg.Owner,
		arg.Name,
		arg.Kind,
		arg.Balance,
		arg.OpeningBalance,
		arg.Currency,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getAccount = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

func (q *Queries) GetAccount(ctx context.Context, id string) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccount, id))
}

const listAccountsByOwner = `SELECT ` + accountColumns + ` FROM accounts WHERE owner = ? ORDER BY name`

func (q *Queries) ListAccountsByOwner(ctx context.Context, owner string) ([]Account, error) {
	return q.listAccounts(ctx, listAccountsByOwner, owner)
}

const listAllAccounts = `SELECT ` + accountColumns + ` FROM accounts ORDER BY owner, name`

func (q *Queries) ListAllAccounts(ctx context.Context) ([]Account, error) {
	return q.listAccounts(ctx, listAllAccounts)
}

func (q *Queries) listAccounts(ctx context.Context, query string, args ...interface{}) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateAccountAttributes = `UPDATE accounts SET name = ?, kind = ?, currency = ?, updated_at = ? WHERE id = ?`

type UpdateAccountAttributesParams struct {
	Name      string
	Kind      string
	Currency  string
	UpdatedAt string
	ID        string
}

func (q *Queries) UpdateAccountAttributes(ctx context.Context, arg UpdateAccountAttributesParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateAccountAttributes,
		arg.Name,
		arg.Kind,
		arg.Currency,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateAccountBalance = `UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ? AND owner = ?`

type UpdateAccountBalanceParams struct {
	Balance   string
	UpdatedAt string
	ID        string
	Owner     string
}

func (q *Queries) UpdateAccountBalance(ctx context.Context, arg UpdateAccountBalanceParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateAccountBalance, arg.Balance, arg.UpdatedAt, arg.ID, arg.Owner)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteAccount = `DELETE FROM accounts WHERE id = ?`

func (q *Queries) DeleteAccount(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteAccount, id)
	return err
}
