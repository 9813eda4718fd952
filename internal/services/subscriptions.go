package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

type NewSubscription struct {
	Name            string
	Amount          decimal.Decimal
	NextBillingDate core.Date
	Frequency       core.Frequency
	Notes           string
	DefaultAccount  string
}

type SubscriptionPatch struct {
	Name            *string
	Amount          *decimal.Decimal
	NextBillingDate *core.Date
	Frequency       *core.Frequency
	Notes           *string
	DefaultAccount  *string
}

type SubscriptionService struct {
	store  SubscriptionStore
	ledger Ledger
	locker ledger.Locker
	clock  clock
}

func NewSubscriptionService(store SubscriptionStore, l Ledger, locker ledger.Locker) *SubscriptionService {
	return &SubscriptionService{store: store, ledger: l, locker: locker}
}

// checkDefaultAccount makes sure automatic charges will land on an account
// the owner holds, in a currency that can carry the amount.
func (s *SubscriptionService) checkDefaultAccount(ctx context.Context, owner string, sub core.Subscription) error {
	if sub.DefaultAccount == "" {
		return nil
	}
	a, err := s.store.GetAccount(ctx, owner, sub.DefaultAccount)
	if err != nil {
		return err
	}
	return core.CheckAmountScale(sub.Amount, a.Currency)
}

func (s *SubscriptionService) Create(ctx context.Context, owner string, in NewSubscription) (core.Subscription, error) {
	now := s.clock.now()
	sub := core.Subscription{
		ID:              uuid.NewString(),
		Owner:           owner,
		Name:            strings.TrimSpace(in.Name),
		Amount:          in.Amount,
		NextBillingDate: in.NextBillingDate,
		BillingDay:      in.NextBillingDate.Day(),
		Frequency:       in.Frequency,
		Notes:           strings.TrimSpace(in.Notes),
		DefaultAccount:  strings.TrimSpace(in.DefaultAccount),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}
	if err := s.checkDefaultAccount(ctx, owner, sub); err != nil {
		return core.Subscription{}, err
	}
	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return core.Subscription{}, err
	}
	return sub, nil
}

func (s *SubscriptionService) List(ctx context.Context, owner string) ([]core.Subscription, error) {
	return s.store.ListSubscriptions(ctx, owner)
}

func (s *SubscriptionService) Get(ctx context.Context, owner, id string) (core.Subscription, error) {
	return s.store.GetSubscription(ctx, owner, id)
}

// Update holds the subscription's billing lock so an edit cannot interleave
// with a charge advancing the billing date.
func (s *SubscriptionService) Update(ctx context.Context, owner, id string, p SubscriptionPatch) (core.Subscription, error) {
	var out core.Subscription
	err := withLocks(ctx, s.locker, []string{ledger.SubscriptionKey(id)}, func(ctx context.Context) error {
		sub, err := s.store.GetSubscription(ctx, owner, id)
		if err != nil {
			return err
		}
		if p.Name != nil {
			sub.Name = strings.TrimSpace(*p.Name)
		}
		if p.Amount != nil {
			sub.Amount = *p.Amount
		}
		if p.NextBillingDate != nil {
			sub.NextBillingDate = *p.NextBillingDate
			sub.BillingDay = sub.NextBillingDate.Day()
		}
		if p.Frequency != nil {
			sub.Frequency = *p.Frequency
		}
		if p.Notes != nil {
			sub.Notes = strings.TrimSpace(*p.Notes)
		}
		if p.DefaultAccount != nil {
			sub.DefaultAccount = strings.TrimSpace(*p.DefaultAccount)
		}
		if err := sub.Validate(); err != nil {
			return err
		}
		if p.DefaultAccount != nil || p.Amount != nil {
			if err := s.checkDefaultAccount(ctx, owner, sub); err != nil {
				return err
			}
		}
		sub.UpdatedAt = s.clock.now()
		if err := s.store.UpdateSubscription(ctx, sub); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return core.Subscription{}, err
	}
	return out, nil
}

// Delete removes the subscription. Transactions it already produced keep
// their subscriptionRef.
func (s *SubscriptionService) Delete(ctx context.Context, owner, id string) error {
	return withLocks(ctx, s.locker, []string{ledger.SubscriptionKey(id)}, func(ctx context.Context) error {
		if _, err := s.store.GetSubscription(ctx, owner, id); err != nil {
			return err
		}
		return s.store.DeleteSubscription(ctx, id)
	})
}

// Charge bills one period on accountID, or on the subscription's default
// account when accountID is empty.
func (s *SubscriptionService) Charge(ctx context.Context, owner, id, accountID string, date core.Date) (core.Transaction, core.Subscription, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		sub, err := s.store.GetSubscription(ctx, owner, id)
		if err != nil {
			return core.Transaction{}, core.Subscription{}, err
		}
		if sub.DefaultAccount == "" {
			return core.Transaction{}, core.Subscription{}, core.ErrAccountNotFound
		}
		accountID = sub.DefaultAccount
	}
	return s.ledger.ChargeSubscription(ctx, owner, id, accountID, date)
}
