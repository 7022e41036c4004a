/*
errors.go - Centralized error types for the payroll core

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine itself never errors (unplaceable excess is an observable
  outcome, not a failure); errors here belong to input validation,
  manual ledger edits, and report building.

ERROR CATEGORIES:
  1. Validation errors - malformed records rejected before the engine runs
  2. Ledger-edit errors - illegal manual include operations
  3. Reference errors - dangling ids at report time

USAGE:
  if errors.Is(err, payroll.ErrSelfInclusion) { ... }

  var cycleErr *payroll.CycleError
  if errors.As(err, &cycleErr) { log.Println(cycleErr.Path) }

SEE ALSO:
  - validate.go: Produces most of these
  - report.go: ErrUnknownSourceRecord
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNonPositiveHours is returned when a work item or ledger entry
	// carries a zero or negative hour value.
	ErrNonPositiveHours = errors.New("non-positive hours")

	// ErrMissingDeclarantFields is returned when a record lacks a
	// declarant name or department.
	ErrMissingDeclarantFields = errors.New("missing required declarant fields")

	// ErrDuplicateRecordID is returned when two records in a batch share an id.
	ErrDuplicateRecordID = errors.New("duplicate record id")

	// ErrSelfInclusion is returned when a ledger entry references the
	// owning record's own id.
	ErrSelfInclusion = errors.New("record cannot include itself")

	// ErrDuplicateSource is returned when one carrier lists the same
	// source record twice.
	ErrDuplicateSource = errors.New("duplicate source in carrier ledger")

	// ErrIneligibleCarrier is returned when a ledger entry targets a
	// record whose declarant holds no work-study position.
	ErrIneligibleCarrier = errors.New("carrier holds no work-study position")

	// ErrUnknownSourceRecord is returned when a ledger entry references
	// a record id not present in the batch.
	ErrUnknownSourceRecord = errors.New("unknown source record")

	// ErrCyclicLedger is returned when the include graph contains a cycle.
	ErrCyclicLedger = errors.New("cyclic inclusion ledger")

	// ErrRecordNotFound is returned by stores when a record does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrBatchNotFound is returned by stores when a batch does not exist.
	ErrBatchNotFound = errors.New("batch not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RecordValidationError pins a validation failure to a record.
type RecordValidationError struct {
	RecordID RecordID
	Field    string // e.g. "workItems[2].hours", "includes[0]"
	Err      error
}

func (e *RecordValidationError) Error() string {
	return fmt.Sprintf("record %d: %s: %v", e.RecordID, e.Field, e.Err)
}

func (e *RecordValidationError) Unwrap() error { return e.Err }

// CycleError reports a cycle in the inclusion ledger. Path is the chain
// of record ids, starting and ending at the same record.
type CycleError struct {
	Path []RecordID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic inclusion ledger: %v", e.Path)
}

func (e *CycleError) Unwrap() error { return ErrCyclicLedger }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid input
// rather than an internal failure. The HTTP layer maps these to 400.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNonPositiveHours) ||
		errors.Is(err, ErrMissingDeclarantFields) ||
		errors.Is(err, ErrDuplicateRecordID) ||
		errors.Is(err, ErrSelfInclusion) ||
		errors.Is(err, ErrDuplicateSource) ||
		errors.Is(err, ErrIneligibleCarrier) ||
		errors.Is(err, ErrUnknownSourceRecord) ||
		errors.Is(err, ErrCyclicLedger)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrBatchNotFound)
}
