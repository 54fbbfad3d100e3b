package core

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/text/language"
)

func newTestValidator(schema Schema) *Validator {
	return NewValidator(language.BrazilianPortuguese, schema, "outros")
}

func TestValidateRoundTrip(t *testing.T) {
	v := newTestValidator(FourField)
	f, err := ParseMessage("Mercado, 10,50, alimentação, crédito", FourField)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tx, err := v.Validate(f, Meta{ID: "tx-1", SenderID: "5511999999999", Timestamp: now})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if tx.Description != "Mercado" || tx.Amount != 10.50 || tx.Category != "Alimentação" || tx.PaymentType != "Crédito" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if tx.ID != "tx-1" || tx.SenderID != "5511999999999" || !tx.Timestamp.Equal(now) {
		t.Fatalf("meta not attached: %+v", tx)
	}
}

func TestValidateInvalidAmount(t *testing.T) {
	v := newTestValidator(FourField)
	f, _ := ParseMessage("Mercado, abc, casa, pix", FourField)
	_, err := v.Validate(f, Meta{})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Kind != InvalidAmount || ve.Value != "abc" {
		t.Fatalf("expected InvalidAmount abc, got %v", err)
	}
}

func TestValidateMissingFields(t *testing.T) {
	v := newTestValidator(FourField)
	cases := []struct {
		f     Fields
		field string
	}{
		{Fields{Description: " ", Amount: "1", Category: "a", PaymentType: "b"}, "description"},
		{Fields{Description: "x", Amount: "1", Category: "", PaymentType: "b"}, "category"},
		{Fields{Description: "x", Amount: "1", Category: "a", PaymentType: ""}, "paymentType"},
	}
	for _, tc := range cases {
		_, err := v.Validate(tc.f, Meta{})
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Kind != MissingField || ve.Field != tc.field {
			t.Fatalf("%+v expected missing %s, got %v", tc.f, tc.field, err)
		}
	}
}

func TestValidateThreeFieldDefaultsPayment(t *testing.T) {
	v := newTestValidator(ThreeField)
	f, _ := ParseMessage("Cinema, 30, LAZER", ThreeField)
	tx, err := v.Validate(f, Meta{})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if tx.Category != "Lazer" || tx.PaymentType != "Outros" {
		t.Fatalf("unexpected labels: %+v", tx)
	}
}

func TestNormalizeLabel(t *testing.T) {
	v := newTestValidator(FourField)
	cases := map[string]string{
		"MERCADO":    "Mercado",
		"mercado":    "Mercado",
		"Mercado":    "Mercado",
		"crédito":    "Crédito",
		"ÁGUA E LUZ": "Água e luz",
		"x":          "X",
		"1x":         "1x",
		"  pix  ":    "Pix",
		"":           "",
		"42":         "42",
	}
	for in, want := range cases {
		got := v.NormalizeLabel(in)
		if got != want {
			t.Fatalf("NormalizeLabel(%q) = %q, want %q", in, got, want)
		}
		if again := v.NormalizeLabel(got); again != got {
			t.Fatalf("NormalizeLabel not idempotent for %q: %q", got, again)
		}
	}
}

func TestNormalizeLabelIdempotent(t *testing.T) {
	v := newTestValidator(FourField)
	cases := []struct {
		in, want string
	}{
		{"ßala", "ßala"},
		{"ﬁm", "ﬁm"},
		{"ŉome", "ŉome"},
		{"ǆungla", "ǅungla"},
		{"ÇARTÃO", "Çartão"},
	}
	for _, tc := range cases {
		once := v.NormalizeLabel(tc.in)
		if once != tc.want {
			t.Errorf("NormalizeLabel(%q) = %q, want %q", tc.in, once, tc.want)
		}
		if twice := v.NormalizeLabel(once); twice != once {
			t.Errorf("NormalizeLabel(%q) = %q, then %q", tc.in, once, twice)
		}
	}
}

func TestNormalizeLabelTurkish(t *testing.T) {
	v := NewValidator(language.Turkish, FourField, "")
	if got := v.NormalizeLabel("istanbul"); got != "İstanbul" {
		t.Fatalf("NormalizeLabel = %q, want İstanbul", got)
	}
	if got := v.NormalizeLabel("İSTANBUL"); got != "İstanbul" {
		t.Fatalf("NormalizeLabel = %q, want İstanbul", got)
	}
}

func TestParseDimension(t *testing.T) {
	for in, want := range map[string]Dimension{
		"category":     DimensionCategory,
		"Categoria":    DimensionCategory,
		"paymentType":  DimensionPaymentType,
		"payment_type": DimensionPaymentType,
		"PAYMENTTYPE":  DimensionPaymentType,
	} {
		got, err := ParseDimension(in)
		if err != nil || got != want {
			t.Fatalf("ParseDimension(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDimension("amount"); err == nil {
		t.Fatalf("expected error for unknown dimension")
	}
}
