package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/log"
)

type NewAccount struct {
	Name           string
	Kind           core.AccountKind
	Currency       string
	OpeningBalance decimal.Decimal
}

// AccountPatch changes descriptive attributes. Balances only move through
// the ledger, so there is no balance field.
type AccountPatch struct {
	Name     *string
	Kind     *core.AccountKind
	Currency *string
}

type AccountService struct {
	store    AccountStore
	locker   ledger.Locker
	clock    clock
	onChange []func(ctx context.Context, owner string)
}

func NewAccountService(store AccountStore, locker ledger.Locker) *AccountService {
	return &AccountService{store: store, locker: locker}
}

// OnChange registers fn to run after an account is edited or deleted.
// Summaries group by account currency, so their cache hooks in here as well
// as on ledger commits.
func (s *AccountService) OnChange(fn func(ctx context.Context, owner string)) *AccountService {
	s.onChange = append(s.onChange, fn)
	return s
}

func (s *AccountService) changed(ctx context.Context, owner string) {
	for _, fn := range s.onChange {
		fn(ctx, owner)
	}
}

func (s *AccountService) Create(ctx context.Context, owner string, in NewAccount) (core.Account, error) {
	now := s.clock.now()
	a := core.Account{
		ID:        uuid.NewString(),
		Owner:     owner,
		Name:      strings.TrimSpace(in.Name),
		Kind:      in.Kind,
		Balance:   in.OpeningBalance,
		Currency:  core.NormalizeCurrency(in.Currency),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if a.Kind == "" {
		a.Kind = core.Other
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := core.CheckAmountScale(a.Balance, a.Currency); err != nil {
		return core.Account{}, err
	}
	if err := s.store.CreateAccount(ctx, a); err != nil {
		return core.Account{}, err
	}

	log.FromContext(ctx).InfoContext(ctx, "Account created",
		log.FieldOwner, owner, log.FieldAccount, a.ID, "currency", a.Currency)
	return a, nil
}

func (s *AccountService) List(ctx context.Context, owner string) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, owner)
}

func (s *AccountService) Get(ctx context.Context, owner, id string) (core.Account, error) {
	return s.store.GetAccount(ctx, owner, id)
}

func (s *AccountService) Update(ctx context.Context, owner, id string, p AccountPatch) (core.Account, error) {
	var out core.Account
	err := withLocks(ctx, s.locker, []string{ledger.AccountKey(id)}, func(ctx context.Context) error {
		a, err := s.store.GetAccount(ctx, owner, id)
		if err != nil {
			return err
		}
		if p.Name != nil {
			a.Name = strings.TrimSpace(*p.Name)
		}
		if p.Kind != nil {
			a.Kind = *p.Kind
		}
		if p.Currency != nil {
			a.Currency = core.NormalizeCurrency(*p.Currency)
		}
		if err := a.Validate(); err != nil {
			return err
		}
		a.UpdatedAt = s.clock.now()
		if err := s.store.UpdateAccountAttributes(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}
	s.changed(ctx, owner)
	return out, nil
}

// Delete removes the account. Transactions that reference it are kept;
// deleting one of them later skips the missing account's correction.
func (s *AccountService) Delete(ctx context.Context, owner, id string) error {
	err := withLocks(ctx, s.locker, []string{ledger.AccountKey(id)}, func(ctx context.Context) error {
		if _, err := s.store.GetAccount(ctx, owner, id); err != nil {
			return err
		}
		orphans, err := s.store.CountTransactionsTouching(ctx, id)
		if err != nil {
			return err
		}
		if err := s.store.DeleteAccount(ctx, id); err != nil {
			return fmt.Errorf("delete account %s: %w", id, err)
		}

		logger := log.FromContext(ctx)
		if orphans > 0 {
			logger.WarnContext(ctx, "Account deleted with referencing transactions",
				log.FieldOwner, owner, log.FieldAccount, id, "transactions", orphans)
		} else {
			logger.InfoContext(ctx, "Account deleted", log.FieldOwner, owner, log.FieldAccount, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.changed(ctx, owner)
	return nil
}
