package core

import (
	"errors"
	"fmt"
)

var (
	ErrWrongArity     = errors.New("wrong number of fields")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrMissingField   = errors.New("missing field")
	ErrStore          = errors.New("ledger store failure")
	ErrDeliveryFailed = errors.New("reply delivery failed")
)

type (
	ParseKind      int
	ValidationKind int
	StoreKind      int
)

const (
	WrongArity ParseKind = iota
)

const (
	InvalidAmount ValidationKind = iota
	MissingField
)

const (
	WriteFailed StoreKind = iota
	ReadFailed
	BackendRejected
)

func (k ParseKind) String() string {
	if k == WrongArity {
		return "wrong_arity"
	}
	return "unknown"
}

func (k ValidationKind) String() string {
	switch k {
	case InvalidAmount:
		return "invalid_amount"
	case MissingField:
		return "missing_field"
	default:
		return "unknown"
	}
}

func (k StoreKind) String() string {
	switch k {
	case WriteFailed:
		return "write_failed"
	case ReadFailed:
		return "read_failed"
	case BackendRejected:
		return "backend_rejected"
	default:
		return "unknown"
	}
}

// ParseError reports a message whose field count does not match the schema.
type ParseError struct {
	Kind     ParseKind
	Expected int
	Actual   int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("wrong arity: expected %d fields, got %d", e.Expected, e.Actual)
}

func (e *ParseError) Is(target error) bool {
	return e.Kind == WrongArity && target == ErrWrongArity
}

// ValidationError reports a field whose content cannot become a Transaction.
type ValidationError struct {
	Kind  ValidationKind
	Value string // raw amount for InvalidAmount
	Field string // field name for MissingField
}

func (e *ValidationError) Error() string {
	if e.Kind == MissingField {
		return fmt.Sprintf("validation: %s is empty", e.Field)
	}
	return fmt.Sprintf("validation: invalid amount %q", e.Value)
}

func (e *ValidationError) Is(target error) bool {
	switch e.Kind {
	case InvalidAmount:
		return target == ErrInvalidAmount
	case MissingField:
		return target == ErrMissingField
	}
	return false
}

// StoreError wraps a backend failure.
type StoreError struct {
	Kind    StoreKind
	Backend string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store: %s: %v", e.Backend, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

// NewStoreError builds a StoreError; nil err yields nil.
func NewStoreError(kind StoreKind, backend string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Kind: kind, Backend: backend, Err: err}
}

// NotificationError reports a reply the channel did not accept.
type NotificationError struct {
	Recipient string
	Status    int
	Err       error
}

func (e *NotificationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("deliver to %s: status %d: %v", e.Recipient, e.Status, e.Err)
	}
	return fmt.Sprintf("deliver to %s: %v", e.Recipient, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

func (e *NotificationError) Is(target error) bool { return target == ErrDeliveryFailed }
