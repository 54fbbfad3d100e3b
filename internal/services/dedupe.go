package services

import (
	"context"

	"zapledger/internal/core"
	"zapledger/internal/ledger"
	"zapledger/internal/log"
)

var _ ledger.Store = (*DeduplicatingStore)(nil)

// IdempotencyGuard remembers which idempotency keys were already written.
type IdempotencyGuard interface {
	// Claim returns true when key was not seen before and is now reserved.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets key so a later retry can claim it again.
	Release(ctx context.Context, key string) error
}

// DeduplicatingStore adds idempotent appends to backends that have no
// unique constraint of their own.
type DeduplicatingStore struct {
	ledger.Store
	guard IdempotencyGuard
}

func NewDeduplicatingStore(store ledger.Store, guard IdempotencyGuard) *DeduplicatingStore {
	return &DeduplicatingStore{Store: store, guard: guard}
}

func (s *DeduplicatingStore) Append(ctx context.Context, tx core.Transaction) (ledger.Receipt, error) {
	if tx.IdempotencyKey == "" || s.guard == nil {
		return s.Store.Append(ctx, tx)
	}

	fresh, err := s.guard.Claim(ctx, tx.IdempotencyKey)
	if err != nil {
		// An unavailable guard must not block writes.
		log.FromContext(ctx).WithComponent(log.ComponentBackend).
			WarnContext(ctx, "Idempotency guard unavailable, appending without dedupe",
				log.FieldIdempotencyKey, tx.IdempotencyKey, log.FieldError, err)
		return s.Store.Append(ctx, tx)
	}
	if !fresh {
		return ledger.Receipt{Duplicate: true}, nil
	}

	rec, err := s.Store.Append(ctx, tx)
	if err != nil {
		if rerr := s.guard.Release(ctx, tx.IdempotencyKey); rerr != nil {
			log.FromContext(ctx).WithComponent(log.ComponentBackend).
				WarnContext(ctx, "Failed to release idempotency key",
					log.FieldIdempotencyKey, tx.IdempotencyKey, log.FieldError, rerr)
		}
		return ledger.Receipt{}, err
	}
	return rec, nil
}
