package ledger

import (
	"context"

	"zapledger/internal/core"
)

// Ports for ledger backends.
type (
	// Appender durably records one transaction.
	Appender interface {
		// Append records tx. A transaction whose IdempotencyKey was already
		// recorded is not written again and yields Receipt.Duplicate.
		Append(ctx context.Context, tx core.Transaction) (Receipt, error)
	}

	// Querier reads stored amounts for one dimension label.
	Querier interface {
		// Query returns every stored amount whose dim field equals value,
		// compared case-insensitively. Rows with a missing or non-numeric
		// amount are skipped.
		Query(ctx context.Context, dim core.Dimension, value string) ([]float64, error)
	}

	// Store is the capability every backend adapter provides.
	Store interface {
		Appender
		Querier
	}

	// Receipt acknowledges an append.
	Receipt struct {
		Ref       string // backend specific row/page/document reference
		Duplicate bool
	}
)
