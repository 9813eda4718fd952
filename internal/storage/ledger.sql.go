package storage

import (
	"context"
	"database/sql"
)

const createAuditEntry = `INSERT INTO ledger_audit (id, owner, transaction_id, action, detail, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateAuditEntry(ctx context.Context, arg LedgerAudit) error {
	_, err := q.db.ExecContext(ctx, createAuditEntry,
		arg.ID,
		arg.Owner,
		arg.TransactionID,
		arg.Action,
		arg.Detail,
		arg.CreatedAt,
	)
	return err
}

const listAuditByOwner = `SELECT id, owner, transaction_id, action, detail, created_at FROM ledger_audit
WHERE owner = ?
ORDER BY created_at DESC`

func (q *Queries) ListAuditByOwner(ctx context.Context, owner string) ([]LedgerAudit, error) {
	rows, err := q.db.QueryContext(ctx, listAuditByOwner, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerAudit
	for rows.Next() {
		var a LedgerAudit
		if err := rows.Scan(&a.ID, &a.Owner, &a.TransactionID, &a.Action, &a.Detail, &a.CreatedAt); err != nil {
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

const createEvent = `INSERT INTO ledger_events (id, owner, type, payload, status, attempts, created_at)
VALUES (?, ?, ?, ?, 'pending', 0, ?)`

type CreateEventParams struct {
	ID        string
	Owner     string
	Type      string
	Payload   string
	CreatedAt string
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	_, err := q.db.ExecContext(ctx, createEvent, arg.ID, arg.Owner, arg.Type, arg.Payload, arg.CreatedAt)
	return err
}

const listPendingEvents = `SELECT id, owner, type, payload, status, attempts, created_at, published_at
FROM ledger_events
WHERE status = 'pending'
ORDER BY created_at, rowid
LIMIT ?`

func (q *Queries) ListPendingEvents(ctx context.Context, limit int64) ([]LedgerEvent, error) {
	rows, err := q.db.QueryContext(ctx, listPendingEvents, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerEvent
	for rows.Next() {
		var e LedgerEvent
		if err := rows.Scan(
			&e.ID,
			&e.Owner,
			&e.Type,
			&e.Payload,
			&e.Status,
			&e.Attempts,
			&e.CreatedAt,
			&e.PublishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markEventPublished = `UPDATE ledger_events SET status = 'published', published_at = ?, attempts = attempts + 1 WHERE id = ?`

func (q *Queries) MarkEventPublished(ctx context.Context, publishedAt sql.NullString, id string) error {
	_, err := q.db.ExecContext(ctx, markEventPublished, publishedAt, id)
	return err
}

const incrementEventAttempts = `UPDATE ledger_events SET attempts = attempts + 1 WHERE id = ?`

func (q *Queries) IncrementEventAttempts(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, incrementEventAttempts, id)
	return err
}

const deletePublishedEventsBefore = `DELETE FROM ledger_events WHERE status = 'published' AND published_at < ?`

func (q *Queries) DeletePublishedEventsBefore(ctx context.Context, cutoff string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePublishedEventsBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
