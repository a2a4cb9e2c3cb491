package farm

import (
	"context"
	"fmt"

	"github.com/smartranch/ranch-engine/ledger"
)

// =============================================================================
// OWNER RESOLUTION
// =============================================================================

// DanglingRefError reports an owning reference that points at a row that no
// longer exists. A data-integrity problem worth reporting, but it must not
// fail the operational write that already succeeded.
type DanglingRefError struct {
	Table string
	ID    int64
}

func (e *DanglingRefError) Error() string {
	return fmt.Sprintf("dangling reference: %s/%d does not exist", e.Table, e.ID)
}

func (e *DanglingRefError) Unwrap() error { return ledger.ErrNotFoundDependency }

// ResolveOwner follows an event's single foreign-key hop to the owning
// farmer. Returns a DanglingRefError when the referenced parent row is
// missing.
func ResolveOwner(ctx context.Context, store Store, ev CostedEvent) (int64, error) {
	ref := ev.OwnerRef()
	switch ref.Kind {
	case OwnerFarmer:
		farmer, err := store.GetFarmer(ctx, ref.ID)
		if err != nil {
			return 0, err
		}
		if farmer == nil {
			return 0, &DanglingRefError{Table: "farmers", ID: ref.ID}
		}
		return farmer.ID, nil

	case OwnerPen:
		pen, err := store.GetPen(ctx, ref.ID)
		if err != nil {
			return 0, err
		}
		if pen == nil {
			return 0, &DanglingRefError{Table: "pens", ID: ref.ID}
		}
		return pen.FarmerID, nil

	case OwnerAnimal:
		animal, err := store.GetAnimal(ctx, ref.ID)
		if err != nil {
			return 0, err
		}
		if animal == nil {
			return 0, &DanglingRefError{Table: "animals", ID: ref.ID}
		}
		return animal.FarmerID, nil

	default:
		return 0, &ledger.ValidationError{Field: "owner", Reason: "unknown owner kind"}
	}
}
