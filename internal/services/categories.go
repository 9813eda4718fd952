package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"finanzas/internal/core"
)

type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// Create adds a category. Names are unique per owner and kind, so "Gifts"
// may exist once as Income and once as Expense.
func (s *CategoryService) Create(ctx context.Context, owner, name string, kind core.TransactionKind) (core.Category, error) {
	c := core.Category{
		ID:    uuid.NewString(),
		Owner: owner,
		Name:  strings.TrimSpace(name),
		Kind:  kind,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context, owner string) ([]core.Category, error) {
	return s.store.ListCategories(ctx, owner)
}

func (s *CategoryService) Delete(ctx context.Context, owner, id string) error {
	if _, err := s.store.GetCategory(ctx, owner, id); err != nil {
		return err
	}
	return s.store.DeleteCategory(ctx, id)
}
