package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"zapledger/internal/core"
	"zapledger/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

// Store is an in-process ledger. It is the default backend and the one
// used by tests.
type Store struct {
	mu    sync.Mutex
	items []core.Transaction
	keys  map[string]string // idempotency key -> ref
}

func New() *Store {
	return &Store{keys: map[string]string{}}
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, tx core.Transaction) (ledger.Receipt, error) {
	if err := tx.Validate(); err != nil {
		return ledger.Receipt{}, core.NewStoreError(core.BackendRejected, "memory", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.IdempotencyKey != "" {
		if ref, ok := s.keys[tx.IdempotencyKey]; ok {
			return ledger.Receipt{Ref: ref, Duplicate: true}, nil
		}
	}
	s.items = append(s.items, tx)
	ref := fmt.Sprintf("mem:%d", len(s.items))
	if tx.IdempotencyKey != "" {
		s.keys[tx.IdempotencyKey] = ref
	}
	return ledger.Receipt{Ref: ref}, nil
}

// Query filters the stored transactions client side.
func (s *Store) Query(_ context.Context, dim core.Dimension, value string) ([]float64, error) {
	value = strings.TrimSpace(value)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []float64
	for _, tx := range s.items {
		if strings.EqualFold(strings.TrimSpace(dim.Value(tx)), value) {
			out = append(out, tx.Amount)
		}
	}
	return out, nil
}

// Len returns the number of stored transactions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// All returns a copy of the stored transactions in append order.
func (s *Store) All() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...)
}
