package core

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const DefaultPaymentType = "Outros"

// Meta carries the values the caller attaches to a validated transaction.
type Meta struct {
	ID             string
	IdempotencyKey string
	SenderID       string
	Timestamp      time.Time
}

// Validator turns parsed Fields into a canonical Transaction.
// It is safe for concurrent use.
type Validator struct {
	tag            language.Tag
	special        unicode.SpecialCase
	schema         Schema
	defaultPayment string
}

// NewValidator builds a Validator normalising labels for the given
// language. defaultPayment fills paymentType for three-field messages.
func NewValidator(tag language.Tag, schema Schema, defaultPayment string) *Validator {
	v := &Validator{tag: tag, schema: schema}
	if base, _ := tag.Base(); base.String() == "tr" || base.String() == "az" {
		v.special = unicode.TurkishCase
	}
	if strings.TrimSpace(defaultPayment) == "" {
		defaultPayment = DefaultPaymentType
	}
	v.defaultPayment = v.NormalizeLabel(defaultPayment)
	return v
}

// NormalizeLabel title-cases the first rune and lower-cases the rest:
// "MERCADO" -> "Mercado", "crédito" -> "Crédito", "1a" -> "1a".
// The first rune only changes when it has a single-rune title form, so
// "ßala" stays "ßala" and the result is stable under re-normalization.
func (v *Validator) NormalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	// Casers keep state between calls, so each call gets its own.
	return string(v.special.ToTitle(first)) + cases.Lower(v.tag).String(s[size:])
}

// Validate normalises f and attaches meta. It never touches the network.
func (v *Validator) Validate(f Fields, meta Meta) (Transaction, error) {
	amount, err := ParseAmount(f.Amount)
	if err != nil {
		return Transaction{}, err
	}

	payment := v.NormalizeLabel(f.PaymentType)
	if v.schema == ThreeField && payment == "" {
		payment = v.defaultPayment
	}

	tx := Transaction{
		ID:             meta.ID,
		IdempotencyKey: meta.IdempotencyKey,
		Description:    strings.TrimSpace(f.Description),
		Amount:         amount,
		Category:       v.NormalizeLabel(f.Category),
		PaymentType:    payment,
		Timestamp:      meta.Timestamp,
		SenderID:       meta.SenderID,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}
