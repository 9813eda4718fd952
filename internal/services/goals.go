package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

type NewGoal struct {
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	DueDate       core.Date
}

// GoalPatch has no completion flag: completion is derived from the amounts.
type GoalPatch struct {
	Name          *string
	TargetAmount  *decimal.Decimal
	CurrentAmount *decimal.Decimal
	DueDate       *core.Date
}

type GoalService struct {
	store GoalStore
	clock clock
}

func NewGoalService(store GoalStore) *GoalService {
	return &GoalService{store: store}
}

func (s *GoalService) Create(ctx context.Context, owner string, in NewGoal) (core.SavingGoal, error) {
	now := s.clock.now()
	g := core.SavingGoal{
		ID:            uuid.NewString(),
		Owner:         owner,
		Name:          strings.TrimSpace(in.Name),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		DueDate:       in.DueDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := g.Validate(); err != nil {
		return core.SavingGoal{}, err
	}
	if err := s.store.CreateGoal(ctx, g); err != nil {
		return core.SavingGoal{}, err
	}
	return g, nil
}

func (s *GoalService) List(ctx context.Context, owner string) ([]core.SavingGoal, error) {
	return s.store.ListGoals(ctx, owner)
}

func (s *GoalService) Get(ctx context.Context, owner, id string) (core.SavingGoal, error) {
	return s.store.GetGoal(ctx, owner, id)
}

func (s *GoalService) Update(ctx context.Context, owner, id string, p GoalPatch) (core.SavingGoal, error) {
	g, err := s.store.GetGoal(ctx, owner, id)
	if err != nil {
		return core.SavingGoal{}, err
	}
	if p.Name != nil {
		g.Name = strings.TrimSpace(*p.Name)
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	if p.DueDate != nil {
		g.DueDate = *p.DueDate
	}
	if err := g.Validate(); err != nil {
		return core.SavingGoal{}, err
	}
	g.UpdatedAt = s.clock.now()
	if err := s.store.UpdateGoal(ctx, g); err != nil {
		return core.SavingGoal{}, err
	}
	return g, nil
}

func (s *GoalService) Delete(ctx context.Context, owner, id string) error {
	if _, err := s.store.GetGoal(ctx, owner, id); err != nil {
		return err
	}
	return s.store.DeleteGoal(ctx, id)
}
