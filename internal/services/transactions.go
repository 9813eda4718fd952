package services

import (
	"context"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// TransactionService pairs the ledger's write path with plain reads.
type TransactionService struct {
	ledger Ledger
	reader TransactionReader
}

func NewTransactionService(l Ledger, reader TransactionReader) *TransactionService {
	return &TransactionService{ledger: l, reader: reader}
}

func (s *TransactionService) Create(ctx context.Context, owner string, draft core.Transaction) (core.Transaction, error) {
	return s.ledger.Apply(ctx, owner, draft)
}

// Update with an empty patch returns the stored record unchanged.
func (s *TransactionService) Update(ctx context.Context, owner, id string, patch ledger.Patch) (core.Transaction, error) {
	if patch.Empty() {
		return s.reader.GetTransaction(ctx, owner, id)
	}
	return s.ledger.Update(ctx, owner, id, patch)
}

func (s *TransactionService) Delete(ctx context.Context, owner, id string) (core.Transaction, error) {
	return s.ledger.Delete(ctx, owner, id)
}

func (s *TransactionService) Get(ctx context.Context, owner, id string) (core.Transaction, error) {
	return s.reader.GetTransaction(ctx, owner, id)
}

// List pages through the owner's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, owner string, limit, offset int) ([]core.Transaction, error) {
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.reader.ListTransactions(ctx, owner, limit, offset)
}
