package storage

import (
	"context"
)

const createCategory = `INSERT INTO categories (id, owner, name, kind) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateCategory(ctx context.Context, arg Category) error {
	_, err := q.db.ExecContext(ctx, createCategory, arg.ID, arg.Owner, arg.Name, arg.Kind)
	return err
}

const getCategory = `SELECT id, owner, name, kind FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id string) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx, getCategory, id).Scan(&c.ID, &c.Owner, &c.Name, &c.Kind)
	return c, err
}

const listCategoriesByOwner = `SELECT id, owner, name, kind FROM categories WHERE owner = ? ORDER BY kind, name`

func (q *Queries) ListCategoriesByOwner(ctx context.Context, owner string) ([]Category, error) {
	return q.listCategories(ctx, listCategoriesByOwner, owner)
}

const listCategoriesByName = `SELECT id, owner, name, kind FROM categories
WHERE owner = ? AND name = ? COLLATE NOCASE`

type ListCategoriesByNameParams struct {
	Owner string
	Name  string
}

func (q *Queries) ListCategoriesByName(ctx context.Context, arg ListCategoriesByNameParams) ([]Category, error) {
	return q.listCategories(ctx, listCategoriesByName, arg.Owner, arg.Name)
}

func (q *Queries) listCategories(ctx context.Context, query string, args ...interface{}) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Owner, &c.Name, &c.Kind); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteCategory, id)
	return err
}
