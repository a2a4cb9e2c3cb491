/*
errors.go - Error taxonomy for the ledger engine

PURPOSE:
  All ledger error types in one place. The taxonomy maps directly onto how
  callers must react:

  ValidationError      -> reject the composite operation (HTTP 4xx)
  Constraint errors    -> conflict, abort and roll back the transaction
  NotFoundDependency   -> log a warning, commit the operational write alone
  StorageFault         -> transient, safe to retry the whole operation

PROPAGATION POLICY:
  Every ledger error except NotFoundDependency aborts the surrounding
  transaction. Nothing is retried inside the engine; retries belong to the
  caller and are safe because the upsert is idempotent per source key.

USAGE:
  Callers classify with the helpers rather than matching concrete types:

    if ledger.IsConflict(err) { ... 409 ... }

SEE ALSO:
  - sync.go:  Where these errors are raised
  - farm/service.go:  The coordinator applying the propagation policy
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation marks malformed input: bad amounts, unparseable dates,
	// a missing owner.
	ErrValidation = errors.New("validation failed")

	// ErrSourceConflict marks a unique source-key violation: either a
	// lost-update race on (source_table, source_id), or an existing entry
	// owned by a different farmer than the one supplied.
	ErrSourceConflict = errors.New("ledger source key conflict")

	// ErrNotFoundDependency marks a dangling foreign key discovered while
	// resolving the owner of an operational record. Non-fatal: the
	// operational write still commits, without a ledger counterpart.
	ErrNotFoundDependency = errors.New("referenced parent record not found")

	// ErrStorageFault marks an I/O or connection failure. The composite
	// operation is safe to retry.
	ErrStorageFault = errors.New("storage fault")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a specific malformed field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// OwnerConflictError reports a source key that already belongs to a
// different farmer. This indicates a resolver or caller bug, never a
// legitimate state, so the enclosing transaction must abort.
type OwnerConflictError struct {
	Source           SourceRef
	ExistingFarmerID int64
	FarmerID         int64
}

func (e *OwnerConflictError) Error() string {
	return fmt.Sprintf("entry for %s belongs to farmer %d, not %d",
		e.Source, e.ExistingFarmerID, e.FarmerID)
}

func (e *OwnerConflictError) Unwrap() error { return ErrSourceConflict }

// StorageError wraps a database-level failure so callers can classify it
// as retryable without losing the underlying message.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return ErrStorageFault }

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsValidation reports whether err is client input that can never succeed.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConflict reports whether err is a source-key constraint violation.
func IsConflict(err error) bool { return errors.Is(err, ErrSourceConflict) }

// IsNotFoundDependency reports whether err is a dangling-reference warning.
func IsNotFoundDependency(err error) bool { return errors.Is(err, ErrNotFoundDependency) }

// IsRetryable reports whether the composite operation might succeed if the
// caller replays it. Only storage faults qualify; the upsert's idempotency
// makes the replay safe.
func IsRetryable(err error) bool { return errors.Is(err, ErrStorageFault) }
