package services

import (
	"context"
	"errors"
	"sync"

	"zapledger/internal/core"
	"zapledger/internal/ledger"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	to   []string
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, to, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.to = append(n.to, to)
	n.sent = append(n.sent, text)
	return n.err
}

type fakePublisher struct {
	events []core.Transaction
	err    error
}

func (p *fakePublisher) PublishTransactionRecorded(_ context.Context, tx core.Transaction) error {
	p.events = append(p.events, tx)
	return p.err
}

// rawStore returns canned amounts and counts calls.
type rawStore struct {
	appends   int
	appendErr error
	queryErr  error
	amounts   []float64
}

func (s *rawStore) Append(_ context.Context, _ core.Transaction) (ledger.Receipt, error) {
	s.appends++
	if s.appendErr != nil {
		return ledger.Receipt{}, s.appendErr
	}
	return ledger.Receipt{Ref: "raw"}, nil
}

func (s *rawStore) Query(_ context.Context, _ core.Dimension, _ string) ([]float64, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.amounts, nil
}

type mapGuard struct {
	keys     map[string]bool
	claimErr error
	released []string
}

func newMapGuard() *mapGuard { return &mapGuard{keys: map[string]bool{}} }

func (g *mapGuard) Claim(_ context.Context, key string) (bool, error) {
	if g.claimErr != nil {
		return false, g.claimErr
	}
	if g.keys[key] {
		return false, nil
	}
	g.keys[key] = true
	return true, nil
}

func (g *mapGuard) Release(_ context.Context, key string) error {
	delete(g.keys, key)
	g.released = append(g.released, key)
	return nil
}

var errBackend = errors.New("backend down")
