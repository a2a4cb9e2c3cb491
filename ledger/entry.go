/*
Package ledger is the financial core of the ranch system.

PURPOSE:
  Every operational record with a monetary cost (feed purchases, vet
  treatments, labor, breeding services) is mirrored by exactly one entry
  in the financial ledger. This package owns that mirror: the entry model,
  amount/date normalization, and the upsert engine that keeps the ledger
  consistent with the operational tables.

KEY CONCEPTS IN THIS FILE (entry.go):
  - Entry:     One line in the financial ledger
  - SourceRef: The (source_table, source_id) natural key linking an entry
               back to the operational record that produced it
  - Line:      The computed input handed to the upsert engine

CRITICAL INVARIANTS:
  1. At most one Entry exists per SourceRef.
  2. Amount is strictly positive for any entry that exists. A computed
     amount of zero or less means the entry must not exist.
  3. ID, FarmerID, Source and CreatedAt never change after creation.

DESIGN PRINCIPLES:
  - Precision: decimal.Decimal for all money, never float64
  - No global state: the engine is functions over an injected store + clock

SEE ALSO:
  - sync.go:   The upsert state machine
  - store.go:  Persistence interface
  - farm/:     The operational records that feed this ledger
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// KIND - Ledger entry classification
// =============================================================================

type Kind string

const (
	// KindExpense is the kind of every sync-derived entry.
	KindExpense Kind = "Expense"
	// KindIncome exists for manually recorded revenue (milk sales, animal
	// sales). The sync engine never writes Income entries.
	KindIncome Kind = "Income"
)

// Valid reports whether k is a known entry kind.
func (k Kind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

// =============================================================================
// SOURCE REF - Natural key back to the operational record
// =============================================================================

// SourceRef identifies the operational record that produced a ledger entry.
// Table is the fixed name of the record's backing store (e.g. "feed_logs"),
// ID is the record's own primary key.
type SourceRef struct {
	Table string
	ID    int64
}

func (r SourceRef) IsZero() bool { return r.Table == "" && r.ID == 0 }

func (r SourceRef) String() string { return fmt.Sprintf("%s/%d", r.Table, r.ID) }

// =============================================================================
// ENTRY - One line in the financial ledger
// =============================================================================

type Entry struct {
	ID       int64
	FarmerID int64 // owning account; immutable after creation
	Kind     Kind
	Category string // free-form: "Feed", "Veterinary", "Labor", ...

	// Description is regenerated on every sync of the source record.
	Description string

	// Amount is a positive fixed-point decimal. The storage layer enforces
	// amount > 0 with a CHECK constraint.
	Amount decimal.Decimal

	// Date is the economic date of the triggering event, not the time the
	// entry was written.
	Date Date

	// Optional cross-references for reporting, copied from the operational
	// record at sync time.
	RelatedAnimalID *int64
	RelatedPenID    *int64

	// Source is nil for manually recorded entries. Sync-derived entries
	// always carry it, and the pair is unique across the ledger.
	Source *SourceRef

	CreatedAt time.Time // set once by the store, never changed
}

// =============================================================================
// LINE - Computed sync input
// =============================================================================

// Line is what an operational subsystem hands to the upsert engine after
// computing the cost of one of its records.
//
// Amount may be nil (treated as zero) because many operational records have
// an optional cost field. Date may be the zero Date, in which case the
// engine substitutes the injected clock's current date.
type Line struct {
	FarmerID        int64
	Amount          *decimal.Decimal
	Category        string
	Description     string
	Date            Date
	Source          SourceRef
	RelatedAnimalID *int64
	RelatedPenID    *int64
}
