package storage

import (
	"context"
)

const goalColumns = `id, owner, name, target_amount, current_amount, due_date, created_at, updated_at`

func scanGoal(row interface{ Scan(...interface{}) error }) (SavingGoal, error) {
	var g SavingGoal
	err := row.Scan(
		&g.ID,
		&g.Owner,
		&g.Name,
		&g.TargetAmount,
		&g.CurrentAmount,
		&g.DueDate,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	return g, err
}

const createGoal = `INSERT INTO saving_goals (` + goalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateGoal(ctx context.Context, arg SavingGoal) error {
	_, err := q.db.ExecContext(ctx, createGoal,
		arg.ID,
		arg.Owner,
		arg.Name,
		arg.TargetAmount,
		arg.CurrentAmount,
		arg.DueDate,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getGoal = `SELECT ` + goalColumns + ` FROM saving_goals WHERE id = ?`

func (q *Queries) GetGoal(ctx context.Context, id string) (SavingGoal, error) {
	return scanGoal(q.db.QueryRowContext(ctx, getGoal, id))
}

const listGoalsByOwner = `SELECT ` + goalColumns + ` FROM saving_goals WHERE owner = ? ORDER BY name`

func (q *Queries) ListGoalsByOwner(ctx context.Context, owner string) ([]SavingGoal, error) {
	rows, err := q.db.QueryContext(ctx, listGoalsByOwner, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SavingGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateGoal = `UPDATE saving_goals
SET name = ?, target_amount = ?, current_amount = ?, due_date = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdateGoal(ctx context.Context, arg SavingGoal) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateGoal,
		arg.Name,
		arg.TargetAmount,
		arg.CurrentAmount,
		arg.DueDate,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteGoal = `DELETE FROM saving_goals WHERE id = ?`

func (q *Queries) DeleteGoal(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteGoal, id)
	return err
}
