/*
store.go - Persistence interface for ledger entries

PURPOSE:
  Defines what the upsert engine needs from storage. Implementations:
  - store/sqlite:  Production SQLite store
  - ledger/store:  In-memory store for engine tests

CONTRACT NOTES:
  Insert must assign Entry.ID and Entry.CreatedAt, and must surface a
  duplicate (source_table, source_id) pair as ErrSourceConflict; the
  storage layer's unique index is what turns a lost-update race into a
  detectable conflict instead of silent duplication.

  The engine adds no locking of its own. Concurrent writes to the same
  source key serialize through the store's transaction isolation.
*/
package ledger

import "context"

// Store persists ledger entries. All methods honor ctx cancellation.
type Store interface {
	// FindBySource returns the entry for a source key, or nil if none.
	FindBySource(ctx context.Context, ref SourceRef) (*Entry, error)

	// Insert persists a new entry, assigning ID and CreatedAt.
	// Returns an error wrapping ErrSourceConflict when the source key
	// already exists.
	Insert(ctx context.Context, e *Entry) error

	// Update overwrites the mutable fields of an existing entry: amount,
	// category, description, date, related_animal_id, related_pen_id.
	// ID, farmer, source key and created_at are never touched.
	Update(ctx context.Context, e *Entry) error

	// DeleteBySource removes the entry for a source key if one exists.
	// Reports whether an entry was removed.
	DeleteBySource(ctx context.Context, ref SourceRef) (bool, error)

	// ListByFarmer returns all entries owned by a farmer in insertion
	// order. Read-only.
	ListByFarmer(ctx context.Context, farmerID int64) ([]Entry, error)
}
