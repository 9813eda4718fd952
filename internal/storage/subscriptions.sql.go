package storage

import (
	"context"
)

const subscriptionColumns = `id, owner, name, amount, next_billing_date, billing_day, frequency, notes, default_account_id, created_at, updated_at`

func scanSubscription(row interface{ Scan(...interface{}) error }) (Subscription, error) {
	var s Subscription
	err := row.Scan(
		&s.ID,
		&s.Owner,
		&s.Name,
		&s.Amount,
		&s.NextBillingDate,
		&s.BillingDay,
		&s.Frequency,
		&s.Notes,
		&s.DefaultAccountID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

const createSubscription = `INSERT INTO subscriptions (` + subscriptionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateSubscription(ctx context.Context, arg Subscription) error {
	_, err := q.db.ExecContext(ctx, createSubscription,
		arg.ID,
		arg.Owner,
		arg.Name,
		arg.Amount,
		arg.NextBillingDate,
		arg.BillingDay,
		arg.Frequency,
		arg.Notes,
		arg.DefaultAccountID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getSubscription = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = ?`

func (q *Queries) GetSubscription(ctx context.Context, id string) (Subscription, error) {
	return scanSubscription(q.db.QueryRowContext(ctx, getSubscription, id))
}

const listSubscriptionsByOwner = `SELECT ` + subscriptionColumns + ` FROM subscriptions
WHERE owner = ?
ORDER BY next_billing_date, name`

func (q *Queries) ListSubscriptionsByOwner(ctx context.Context, owner string) ([]Subscription, error) {
	return q.listSubscriptions(ctx, listSubscriptionsByOwner, owner)
}

const listDueSubscriptions = `SELECT ` + subscriptionColumns + ` FROM subscriptions
WHERE default_account_id IS NOT NULL AND next_billing_date <= ?
ORDER BY next_billing_date, id`

// ListDueSubscriptions returns subscriptions with a default account whose
// next billing date is on or before the given YYYY-MM-DD date.
func (q *Queries) ListDueSubscriptions(ctx context.Context, date string) ([]Subscription, error) {
	return q.listSubscriptions(ctx, listDueSubscriptions, date)
}

func (q *Queries) listSubscriptions(ctx context.Context, query string, args ...interface{}) ([]Subscription, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateSubscription = `UPDATE subscriptions
SET name = ?, amount = ?, next_billing_date = ?, billing_day = ?, frequency = ?, notes = ?, default_account_id = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdateSubscription(ctx context.Context, arg Subscription) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateSubscription,
		arg.Name,
		arg.Amount,
		arg.NextBillingDate,
		arg.BillingDay,
		arg.Frequency,
		arg.Notes,
		arg.DefaultAccountID,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateNextBillingDate = `UPDATE subscriptions SET next_billing_date = ?, updated_at = ? WHERE id = ? AND owner = ?`

type UpdateNextBillingDateParams struct {
	NextBillingDate string
	UpdatedAt       string
	ID              string
	Owner           string
}

func (q *Queries) UpdateNextBillingDate(ctx context.Context, arg UpdateNextBillingDateParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateNextBillingDate, arg.NextBillingDate, arg.UpdatedAt, arg.ID, arg.Owner)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteSubscription = `DELETE FROM subscriptions WHERE id = ?`

func (q *Queries) DeleteSubscription(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteSubscription, id)
	return err
}
