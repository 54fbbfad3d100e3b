package services

import (
	"context"

	"zapledger/internal/core"
	"zapledger/internal/ledger"
)

// Aggregator computes running totals from a ledger.
type Aggregator struct {
	q ledger.Querier
}

func NewAggregator(q ledger.Querier) *Aggregator {
	return &Aggregator{q: q}
}

// Sum adds every stored amount for dim == value in the order the backend
// returns them. There is no rounding here, so repeated small amounts keep
// their floating point drift. An empty result is exactly 0.
func (a *Aggregator) Sum(ctx context.Context, dim core.Dimension, value string) (float64, error) {
	amounts, err := a.q.Query(ctx, dim, value)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, v := range amounts {
		total += v
	}
	return total, nil
}
