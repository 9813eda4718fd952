package storage

import (
	"context"
	"database/sql"
)

const transactionColumns = `id, owner, account_id, kind, category, description, amount, date, to_account_id, subscription_id, created_at, updated_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID,
		&t.Owner,
		&t.AccountID,
		&t.Kind,
		&t.Category,
		&t.Description,
		&t.Amount,
		&t.Date,
		&t.ToAccountID,
		&t.SubscriptionID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

const createTransaction = `INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID,
		arg.Owner,
		arg.AccountID,
		arg.Kind,
		arg.Category,
		arg.Description,
		arg.Amount,
		arg.Date,
		arg.ToAccountID,
		arg.SubscriptionID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const listTransactionsByOwner = `SELECT ` + transactionColumns + ` FROM transactions
WHERE owner = ?
ORDER BY date DESC, created_at DESC, rowid DESC
LIMIT ? OFFSET ?`

type ListTransactionsByOwnerParams struct {
	Owner  string
	Limit  int64
	Offset int64
}

func (q *Queries) ListTransactionsByOwner(ctx context.Context, arg ListTransactionsByOwnerParams) ([]Transaction, error) {
	return q.listTransactions(ctx, listTransactionsByOwner, arg.Owner, arg.Limit, arg.Offset)
}

const listTransactionsBetween = `SELECT ` + transactionColumns + ` FROM transactions
WHERE owner = ? AND date >= ? AND date < ?
ORDER BY date, created_at, rowid`

type ListTransactionsBetweenParams struct {
	Owner string
	From  string
	To    string
}

func (q *Queries) ListTransactionsBetween(ctx context.Context, arg ListTransactionsBetweenParams) ([]Transaction, error) {
	return q.listTransactions(ctx, listTransactionsBetween, arg.Owner, arg.From, arg.To)
}

const listTransactionsTouchingAccount = `SELECT ` + transactionColumns + ` FROM transactions
WHERE account_id = ? OR to_account_id = ?
ORDER BY date, created_at, rowid`

func (q *Queries) ListTransactionsTouchingAccount(ctx context.Context, accountID string) ([]Transaction, error) {
	return q.listTransactions(ctx, listTransactionsTouchingAccount, accountID, accountID)
}

func (q *Queries) listTransactions(ctx context.Context, query string, args ...interface{}) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateTransaction = `UPDATE transactions
SET account_id = ?, kind = ?, category = ?, description = ?, amount = ?, date = ?, to_account_id = ?, updated_at = ?
WHERE id = ? AND owner = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, arg Transaction) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransaction,
		arg.AccountID,
		arg.Kind,
		arg.Category,
		arg.Description,
		arg.Amount,
		arg.Date,
		arg.ToAccountID,
		arg.UpdatedAt,
		arg.ID,
		arg.Owner,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ? AND owner = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id, owner string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id, owner)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countTransactionsTouchingAccount = `SELECT COUNT(*) FROM transactions WHERE account_id = ? OR to_account_id = ?`

func (q *Queries) CountTransactionsTouchingAccount(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactionsTouchingAccount, accountID, accountID).Scan(&n)
	return n, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
