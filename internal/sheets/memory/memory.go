// Package memory is an in-process ledger mirror for development and tests.
package memory

import (
	"context"
	"sync"

	"finanzas/internal/sheets"
)

type Store struct {
	mu    sync.Mutex
	order []string
	rows  map[string]sheets.MirrorRow
}

var (
	_ sheets.LedgerMirror = (*Store)(nil)
	_ sheets.MirrorReader = (*Store)(nil)
)

func New() *Store {
	return &Store{rows: map[string]sheets.MirrorRow{}}
}

func (s *Store) Upsert(_ context.Context, row sheets.MirrorRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[row.TransactionID]; !ok {
		s.order = append(s.order, row.TransactionID)
	}
	s.rows[row.TransactionID] = row
	return nil
}

func (s *Store) Remove(_ context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[transactionID]; !ok {
		return nil
	}
	delete(s.rows, transactionID)
	for i, id := range s.order {
		if id == transactionID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Rows returns rows in first-written order.
func (s *Store) Rows(_ context.Context) ([]sheets.MirrorRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sheets.MirrorRow, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id])
	}
	return out, nil
}
