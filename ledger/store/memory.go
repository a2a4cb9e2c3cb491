// Package store provides ledger.Store implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/smartranch/ranch-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	entries []ledger.Entry // insertion order
	bySrc   map[ledger.SourceRef]int64
	nextID  int64
}

func NewMemory() *Memory {
	return &Memory{bySrc: make(map[ledger.SourceRef]int64)}
}

func (m *Memory) FindBySource(_ context.Context, ref ledger.SourceRef) (*ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.bySrc[ref]
	if !ok {
		return nil, nil
	}
	for _, e := range m.entries {
		if e.ID == id {
			out := e
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) Insert(_ context.Context, e *ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.Source != nil {
		if id, exists := m.bySrc[*e.Source]; exists {
			conflict := &ledger.OwnerConflictError{Source: *e.Source, FarmerID: e.FarmerID}
			for _, cur := range m.entries {
				if cur.ID == id {
					conflict.ExistingFarmerID = cur.FarmerID
					break
				}
			}
			return conflict
		}
	}

	m.nextID++
	e.ID = m.nextID
	e.CreatedAt = time.Now().UTC()
	m.entries = append(m.entries, *e)
	if e.Source != nil {
		m.bySrc[*e.Source] = e.ID
	}
	return nil
}

func (m *Memory) Update(_ context.Context, e *ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].ID == e.ID {
			// Immutable fields stay as first written.
			kept := m.entries[i]
			kept.Amount = e.Amount
			kept.Category = e.Category
			kept.Description = e.Description
			kept.Date = e.Date
			kept.RelatedAnimalID = e.RelatedAnimalID
			kept.RelatedPenID = e.RelatedPenID
			m.entries[i] = kept
			return nil
		}
	}
	return ledger.ErrStorageFault
}

func (m *Memory) DeleteBySource(_ context.Context, ref ledger.SourceRef) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.bySrc[ref]
	if !ok {
		return false, nil
	}
	delete(m.bySrc, ref)
	for i := range m.entries {
		if m.entries[i].ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *Memory) ListByFarmer(_ context.Context, farmerID int64) ([]ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.Entry
	for _, e := range m.entries {
		if e.FarmerID == farmerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len reports the total number of entries across all farmers.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
