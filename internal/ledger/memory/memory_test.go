package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"zapledger/internal/core"
)

func tx(amount float64, category, payment string) core.Transaction {
	return core.Transaction{
		Description: "t",
		Amount:      amount,
		Category:    category,
		PaymentType: payment,
		Timestamp:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStoreAppendAndQuery(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Append(ctx, tx(20, "Casa", "Credito"))
	if err != nil || ref.Ref != "mem:1" || ref.Duplicate {
		t.Fatalf("unexpected append: ref=%+v err=%v", ref, err)
	}
	if _, err := s.Append(ctx, tx(5, "Mercado", "Credito")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Append(ctx, tx(7, "Casa", "Pix")); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.Query(ctx, core.DimensionPaymentType, "credito")
	if err != nil || len(got) != 2 || got[0] != 20 || got[1] != 5 {
		t.Fatalf("unexpected query: %v err=%v", got, err)
	}
	got, _ = s.Query(ctx, core.DimensionCategory, "CASA")
	if len(got) != 2 || got[0] != 20 || got[1] != 7 {
		t.Fatalf("unexpected category query: %v", got)
	}
	got, _ = s.Query(ctx, core.DimensionPaymentType, "boleto")
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}

func TestMemoryStoreIdempotencyKey(t *testing.T) {
	s := New()
	ctx := context.Background()
	first := tx(10, "Casa", "Pix")
	first.IdempotencyKey = "wamid.1"

	r1, err := s.Append(ctx, first)
	if err != nil || r1.Duplicate {
		t.Fatalf("first append: %+v %v", r1, err)
	}
	r2, err := s.Append(ctx, first)
	if err != nil || !r2.Duplicate || r2.Ref != r1.Ref {
		t.Fatalf("second append should be a duplicate of %q: %+v %v", r1.Ref, r2, err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected one stored transaction, got %d", s.Len())
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.Append(context.Background(), tx(1, "", "Pix"))
	if !errors.Is(err, core.ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	var se *core.StoreError
	if !errors.As(err, &se) || se.Kind != core.BackendRejected {
		t.Fatalf("expected BackendRejected, got %v", err)
	}
}
