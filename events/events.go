// Package events carries post-commit notifications about ledger syncs,
// consumed by reporting pipelines. Publishing is best-effort: a failed
// publish never unwinds a committed transaction.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// LedgerSynced is emitted after a composite operation commits with a
// ledger effect.
type LedgerSynced struct {
	EventID     string          `json:"event_id"`
	Action      Action          `json:"action"`
	FarmerID    int64           `json:"farmer_id"`
	EntryID     int64           `json:"entry_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	SourceTable string          `json:"source_table"`
	SourceID    int64           `json:"source_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, evt LedgerSynced) error
}

// Noop discards events. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, LedgerSynced) error { return nil }

// Memory records events in order. For tests.
type Memory struct {
	mu     sync.Mutex
	events []LedgerSynced
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Publish(_ context.Context, evt LedgerSynced) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *Memory) Events() []LedgerSynced {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LedgerSynced, len(m.events))
	copy(out, m.events)
	return out
}
