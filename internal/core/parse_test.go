package core

import (
	"errors"
	"testing"
)

func TestParseMessageFourField(t *testing.T) {
	cases := []struct {
		in   string
		want Fields
	}{
		{"Mercado, 10,50, alimentação, crédito", Fields{"Mercado", "10,50", "alimentação", "crédito"}},
		{"Mercado,10,50,casa,pix", Fields{"Mercado", "10,50", "casa", "pix"}},
		{"  Uber , 23.90 , transporte , débito ", Fields{"Uber", "23.90", "transporte", "débito"}},
		{"Padaria, 7, casa, pix", Fields{"Padaria", "7", "casa", "pix"}},
		{"Mercado, abc, casa, pix", Fields{"Mercado", "abc", "casa", "pix"}},
	}
	for _, tc := range cases {
		got, err := ParseMessage(tc.in, FourField)
		if err != nil {
			t.Fatalf("%q unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q got %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestParseMessageThreeField(t *testing.T) {
	got, err := ParseMessage("Cinema, 30,00, lazer", ThreeField)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Fields{Description: "Cinema", Amount: "30,00", Category: "lazer"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if _, err := ParseMessage("Cinema, 30, lazer, pix", ThreeField); err == nil || !errors.Is(err, ErrWrongArity) {
		t.Fatalf("expected wrong arity for four fields in three-field mode, got %v", err)
	}
}

func TestParseMessageWrongArity(t *testing.T) {
	cases := []struct {
		in     string
		actual int
	}{
		{"a, b", 2},
		{"sem virgulas", 1},
		{"", 1},
		{"a, b, c, d, e, f", 6},
		// a space after the comma means a separator, not a decimal comma
		{"Mercado, 10, 50, casa, pix", 5},
	}
	for _, tc := range cases {
		_, err := ParseMessage(tc.in, FourField)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("%q expected ParseError, got %v", tc.in, err)
		}
		if pe.Kind != WrongArity || pe.Expected != 4 || pe.Actual != tc.actual {
			t.Fatalf("%q got kind=%s expected=%d actual=%d", tc.in, pe.Kind, pe.Expected, pe.Actual)
		}
		if !errors.Is(err, ErrWrongArity) {
			t.Fatalf("%q should match ErrWrongArity", tc.in)
		}
	}
}
