package docstore

import (
	"context"
	"math"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"zapledger/internal/core"
)

func raw(t *testing.T, v any) bson.RawValue {
	t.Helper()
	typ, data, err := bson.MarshalValue(v)
	if err != nil {
		t.Fatalf("marshal %v: %v", v, err)
	}
	return bson.RawValue{Type: typ, Value: data}
}

func TestAmountFromRaw(t *testing.T) {
	dec, _ := primitive.ParseDecimal128("12.5")
	cases := []struct {
		in any
		v  float64
		ok bool
	}{
		{10.25, 10.25, true},
		{int32(3), 3, true},
		{int64(7), 7, true},
		{dec, 12.5, true},
		{"4,5", 4.5, true},
		{"abc", 0, false},
		{true, 0, false},
		{math.Inf(1), 0, false},
	}
	for _, tc := range cases {
		v, ok := amountFromRaw(raw(t, tc.in))
		if ok != tc.ok || v != tc.v {
			t.Fatalf("amountFromRaw(%v) = %v, %v", tc.in, v, ok)
		}
	}
	if _, ok := amountFromRaw(bson.RawValue{}); ok {
		t.Fatal("missing value should be skipped")
	}
}

func TestNewDocumentFoldsKeys(t *testing.T) {
	doc := newDocument(core.Transaction{
		ID: "id", Description: "Mercado", Amount: 1, Category: "Alimentação", PaymentType: "Crédito",
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.FixedZone("BRT", -3*3600)),
	})
	if doc.CategoryKey != "alimentação" || doc.PaymentTypeKey != "crédito" {
		t.Fatalf("unexpected keys: %+v", doc)
	}
	if doc.Timestamp != "2025-01-01T03:00:00Z" {
		t.Fatalf("timestamp not normalised to UTC: %s", doc.Timestamp)
	}
}

func TestKeyField(t *testing.T) {
	if f, _ := keyField(core.DimensionPaymentType); f != "paymentTypeKey" {
		t.Fatalf("got %s", f)
	}
	if _, err := keyField("amount"); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenRequiresURI(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatal("expected missing uri error")
	}
}
