/*
sync.go - The ledger upsert engine

PURPOSE:
  The single write path for sync-derived ledger entries. Whenever an
  operational record with a cost is created or edited, its subsystem calls
  Upsert with the computed line. The engine then inserts, updates, or
  removes the entry keyed by (source_table, source_id).

STATE TRANSITIONS (per source key):
  no entry + positive amount   -> insert
  entry    + positive amount   -> update in place
  no entry + non-positive      -> no-op
  entry    + non-positive      -> delete (the cost was corrected away, so
                                  the ledger line must go with it)

CRITICAL INVARIANTS:
  1. IDEMPOTENT: Upsert with identical inputs twice leaves identical
     persisted state. No duplicate rows, no double counting.
  2. ONE ENTRY PER SOURCE: The store's unique index backs this up; the
     engine never races past it silently.
  3. OWNER IMMUTABLE: An existing entry's farmer is never reassigned. A
     caller supplying a different farmer for an existing key gets an
     OwnerConflictError, which must abort the enclosing transaction.

TRANSACTIONALITY:
  Upsert runs against whatever Store it is handed. The transaction
  coordinator (farm.Service) passes a tx-scoped store so the operational
  write and the ledger write commit or roll back together. The engine
  itself is synchronous and spawns nothing.

SEE ALSO:
  - entry.go:        Line and Entry
  - farm/service.go: The coordinator wrapping Upsert in a transaction
*/
package ledger

import (
	"context"
)

// =============================================================================
// SYNCER
// =============================================================================

// Syncer keeps ledger entries consistent with their source records.
// It is stateless apart from the injected clock; one Syncer serves all
// operational subsystems.
type Syncer struct {
	clock Clock
}

func NewSyncer(clock Clock) *Syncer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Syncer{clock: clock}
}

// Today reports the engine clock's current date.
func (s *Syncer) Today() Date { return s.clock.Today() }

// Upsert applies one computed line to the ledger.
//
// Returns the entry now persisted for the line's source key, or nil when
// the outcome is "no entry exists" (non-positive amount). The caller is
// responsible for running this inside the same transaction as the
// operational write.
func (s *Syncer) Upsert(ctx context.Context, store Store, line Line) (*Entry, error) {
	if line.Source.Table == "" || line.Source.ID <= 0 {
		return nil, &ValidationError{Field: "source", Reason: "source table and id are required"}
	}

	amount, skip := NormalizeAmount(line.Amount)
	if skip {
		// The cost is gone. If a previous positive sync left an entry
		// behind, remove it so the ledger never reports a stale cost.
		if _, err := store.DeleteBySource(ctx, line.Source); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if line.FarmerID <= 0 {
		return nil, &ValidationError{Field: "farmer_id", Reason: "owner is required"}
	}

	date := line.Date
	if date.IsZero() {
		date = s.clock.Today()
	}

	existing, err := store.FindBySource(ctx, line.Source)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.FarmerID != line.FarmerID {
			return nil, &OwnerConflictError{
				Source:           line.Source,
				ExistingFarmerID: existing.FarmerID,
				FarmerID:         line.FarmerID,
			}
		}
		existing.Amount = amount
		existing.Category = line.Category
		existing.Description = line.Description
		existing.Date = date
		existing.RelatedAnimalID = line.RelatedAnimalID
		existing.RelatedPenID = line.RelatedPenID
		if err := store.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	src := line.Source
	entry := &Entry{
		FarmerID:        line.FarmerID,
		Kind:            KindExpense,
		Category:        line.Category,
		Description:     line.Description,
		Amount:          amount,
		Date:            date,
		RelatedAnimalID: line.RelatedAnimalID,
		RelatedPenID:    line.RelatedPenID,
		Source:          &src,
	}
	if err := store.Insert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Unlink removes the ledger entry for a deleted operational record.
// Reports whether an entry existed. Runs in the caller's transaction, like
// Upsert.
func (s *Syncer) Unlink(ctx context.Context, store Store, ref SourceRef) (bool, error) {
	if ref.Table == "" || ref.ID <= 0 {
		return false, &ValidationError{Field: "source", Reason: "source table and id are required"}
	}
	return store.DeleteBySource(ctx, ref)
}
