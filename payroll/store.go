/*
store.go - Persistence interface for batches, records, and ledgers

PURPOSE:
  Defines the boundary between the payroll core and the database. The
  core itself is pure; everything stateful goes through RecordStore.

WRITE SHAPE:
  Declarations and declarant data are written once, at collection time.
  After review, the ONLY thing ever written back is the inclusion
  ledger: SaveLedgers replaces a batch's ledgers wholesale, in one
  atomic write, last writer wins. There is no partial-success or merge
  semantics, and no optimistic-concurrency token.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - payroll/store: In-memory for tests and demos

SEE ALSO:
  - types.go: The entities persisted here
  - api/handlers.go: The only consumer
*/
package payroll

import "context"

// RecordStore handles persistence of departments, batches, and
// declaration records.
type RecordStore interface {
	// ListDepartments returns all departments ordered by id.
	ListDepartments(ctx context.Context) ([]Department, error)

	// SaveDepartment inserts or updates a department.
	SaveDepartment(ctx context.Context, d Department) error

	// ListBatches returns all declaration periods, newest first.
	ListBatches(ctx context.Context) ([]Batch, error)

	// GetBatch returns one batch, or ErrBatchNotFound.
	GetBatch(ctx context.Context, id BatchID) (*Batch, error)

	// CreateBatch opens a new declaration period.
	CreateBatch(ctx context.Context, name string) (*Batch, error)

	// ListRecords returns a batch's records in insertion order
	// (declarants within the same department contiguous after
	// PrepareWorkingSet; the store itself does not sort).
	ListRecords(ctx context.Context, batchID BatchID) ([]DeclarationRecord, error)

	// SaveRecord inserts or updates a full record (collection phase).
	SaveRecord(ctx context.Context, r DeclarationRecord) error

	// SetStatus advances every record of a batch to the given status
	// (the "one-key" review operation).
	SetStatus(ctx context.Context, batchID BatchID, status Status) error

	// SaveLedgers atomically replaces the inclusion ledgers of a whole
	// batch with the given payload. Records absent from items end up
	// with an empty ledger.
	SaveLedgers(ctx context.Context, batchID BatchID, items []LedgerItem) error

	// ClearLedgers resets a batch to its pristine, pre-redistribution
	// state by dropping every inclusion entry.
	ClearLedgers(ctx context.Context, batchID BatchID) error
}
