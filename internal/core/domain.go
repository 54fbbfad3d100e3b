package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DimensionCategory    Dimension = "category"
	DimensionPaymentType Dimension = "paymentType"
)

const (
	ThreeField Schema = 3 // description, amount, category
	FourField  Schema = 4 // description, amount, category, paymentType
)

type (
	// Dimension is the transaction field used to filter totals.
	Dimension string

	// Schema is the number of comma separated fields a deployment accepts.
	Schema int

	// Fields is the raw, trimmed output of ParseMessage.
	Fields struct {
		Description string
		Amount      string
		Category    string
		PaymentType string // empty for ThreeField
	}

	// Transaction is one validated ledger entry.
	Transaction struct {
		ID             string
		IdempotencyKey string // transport message id, may be empty
		Description    string
		Amount         float64
		Category       string
		PaymentType    string
		Timestamp      time.Time
		SenderID       string
	}
)

// ParseDimension accepts "category" or "paymentType" in any case; the
// snake_case spelling "payment_type" is accepted as well.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "category", "categoria":
		return DimensionCategory, nil
	case "paymenttype", "payment_type", "payment", "pagamento":
		return DimensionPaymentType, nil
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

func (d Dimension) String() string {
	return string(d)
}

func (d Dimension) IsValid() bool {
	return d == DimensionCategory || d == DimensionPaymentType
}

// Value returns the transaction's label for the dimension.
func (d Dimension) Value(tx Transaction) string {
	if d == DimensionCategory {
		return tx.Category
	}
	return tx.PaymentType
}

// ParseSchema accepts "3", "4", "three-field" and "four-field".
func ParseSchema(s string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "3", "three", "three-field":
		return ThreeField, nil
	case "4", "four", "four-field":
		return FourField, nil
	}
	return 0, fmt.Errorf("unknown message schema %q", s)
}

func (s Schema) IsValid() bool {
	return s == ThreeField || s == FourField
}

// FieldNames lists the user-facing field names in message order.
func (s Schema) FieldNames() []string {
	names := []string{"descrição", "valor", "categoria"}
	if s == FourField {
		names = append(names, "pagamento")
	}
	return names
}

// Validate checks the invariants every persisted transaction must hold.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return &ValidationError{Kind: MissingField, Field: "description"}
	}
	if !isFinite(t.Amount) {
		return &ValidationError{Kind: InvalidAmount, Value: fmt.Sprint(t.Amount)}
	}
	if strings.TrimSpace(t.Category) == "" {
		return &ValidationError{Kind: MissingField, Field: "category"}
	}
	if strings.TrimSpace(t.PaymentType) == "" {
		return &ValidationError{Kind: MissingField, Field: "paymentType"}
	}
	return nil
}

// FoldKey is the comparison key used by backends that filter natively.
func FoldKey(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// InboundMessage is one text message handed over by the transport.
type InboundMessage struct {
	ID        string // channel message id, used as idempotency key
	From      string
	Text      string
	Timestamp time.Time
}
