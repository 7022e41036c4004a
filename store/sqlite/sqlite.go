/*
Package sqlite provides the SQLite-backed implementation of
payroll.RecordStore.

PURPOSE:
  Persists departments, declaration batches, and declaration records,
  and handles the one write that matters after review: the atomic
  whole-batch ledger save.

KEY TABLES:
  departments:  Department list consumed by the report aggregator
  batches:      Declaration periods
  records:      One row per declarant per batch (declarant snapshot inline)
  work_items:   Declared lines ({description, hours}) per record
  includes:     The inclusion ledger ({carrier, source, hours})
  ledger_saves: Audit rows, one per whole-batch ledger write

LEDGER SAVE CONTRACT:
  SaveLedgers deletes every include row of the batch and inserts the
  payload inside one SQL transaction: all-or-nothing, last writer wins.
  No merge, no partial success, no concurrency token - the operator
  reviewing a batch is the single writer by process design.

DECIMAL STORAGE:
  Hours are stored as decimal strings (TEXT), never as REAL, so that
  what was saved is exactly what is paid.

WAL MODE:
  SQLite is opened with WAL for better read concurrency and crash
  recovery. Use ":memory:" for tests.

SEE ALSO:
  - payroll/store.go: Interface definition
  - payroll/store/memory.go: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/yqwork/payroll-engine/payroll"
)

// Store implements payroll.RecordStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ payroll.RecordStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS departments (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS batches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY,
		batch_id INTEGER NOT NULL REFERENCES batches(id),
		declarant_name TEXT NOT NULL,
		student_id TEXT NOT NULL DEFAULT '',
		college TEXT NOT NULL DEFAULT '',
		job_title TEXT NOT NULL DEFAULT '',
		department_id INTEGER NOT NULL,
		has_position INTEGER NOT NULL,
		status INTEGER NOT NULL DEFAULT 0,
		comment TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_records_batch ON records(batch_id);

	CREATE TABLE IF NOT EXISTS work_items (
		record_id INTEGER NOT NULL REFERENCES records(id),
		seq INTEGER NOT NULL,
		description TEXT NOT NULL,
		hours TEXT NOT NULL,
		PRIMARY KEY (record_id, seq)
	);

	-- The inclusion ledger: carrier record_id pays out hours belonging
	-- to source_record_id. A source appears at most once per carrier.
	CREATE TABLE IF NOT EXISTS includes (
		record_id INTEGER NOT NULL REFERENCES records(id),
		source_record_id INTEGER NOT NULL,
		hours TEXT NOT NULL,
		seq INTEGER NOT NULL,
		PRIMARY KEY (record_id, source_record_id)
	);

	CREATE TABLE IF NOT EXISTS ledger_saves (
		id TEXT PRIMARY KEY,
		batch_id INTEGER NOT NULL,
		item_count INTEGER NOT NULL,
		saved_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

func (s *Store) ListDepartments(ctx context.Context) ([]payroll.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description FROM departments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.Department
	for rows.Next() {
		var d payroll.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Desc); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) SaveDepartment(ctx context.Context, d payroll.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO departments (id, name, description) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description`,
		d.ID, d.Name, d.Desc)
	return err
}

// =============================================================================
// BATCHES
// =============================================================================

func (s *Store) ListBatches(ctx context.Context) ([]payroll.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM batches ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.Batch
	for rows.Next() {
		var b payroll.Batch
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) GetBatch(ctx context.Context, id payroll.BatchID) (*payroll.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b payroll.Batch
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM batches WHERE id = ?`, id).Scan(&b.ID, &b.Name)
	if err == sql.ErrNoRows {
		return nil, payroll.ErrBatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateBatch(ctx context.Context, name string) (*payroll.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO batches (name, created_at) VALUES (?, ?)`,
		name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &payroll.Batch{ID: payroll.BatchID(id), Name: name}, nil
}

// =============================================================================
// RECORDS
// =============================================================================

func (s *Store) ListRecords(ctx context.Context, batchID payroll.BatchID) ([]payroll.DeclarationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.batchExists(ctx, batchID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, declarant_name, student_id, college, job_title,
		       department_id, has_position, status, comment
		FROM records WHERE batch_id = ? ORDER BY id`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []payroll.DeclarationRecord
	for rows.Next() {
		var r payroll.DeclarationRecord
		var hasPosition int
		if err := rows.Scan(&r.ID, &r.BatchID, &r.Declarant.Name, &r.Declarant.StudentID,
			&r.Declarant.College, &r.Declarant.JobTitle, &r.Declarant.DepartmentID,
			&hasPosition, &r.Status, &r.Comment); err != nil {
			return nil, err
		}
		r.Declarant.HasWorkStudyPosition = hasPosition != 0
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range records {
		if err := s.loadWorkItems(ctx, &records[i]); err != nil {
			return nil, err
		}
		if err := s.loadIncludes(ctx, &records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *Store) loadWorkItems(ctx context.Context, r *payroll.DeclarationRecord) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT description, hours FROM work_items WHERE record_id = ? ORDER BY seq`, r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item payroll.WorkItem
		var hours string
		if err := rows.Scan(&item.Description, &hours); err != nil {
			return err
		}
		if item.Hours.Value, err = decimal.NewFromString(hours); err != nil {
			return fmt.Errorf("record %d: bad hours %q: %w", r.ID, hours, err)
		}
		r.WorkItems = append(r.WorkItems, item)
	}
	return rows.Err()
}

func (s *Store) loadIncludes(ctx context.Context, r *payroll.DeclarationRecord) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_record_id, hours FROM includes WHERE record_id = ? ORDER BY seq`, r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var in payroll.IncludeEntry
		var hours string
		if err := rows.Scan(&in.SourceRecordID, &hours); err != nil {
			return err
		}
		if in.Hours.Value, err = decimal.NewFromString(hours); err != nil {
			return fmt.Errorf("record %d: bad include hours %q: %w", r.ID, hours, err)
		}
		r.Includes = append(r.Includes, in)
	}
	return rows.Err()
}

func (s *Store) SaveRecord(ctx context.Context, r payroll.DeclarationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.batchExists(ctx, r.BatchID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	hasPosition := 0
	if r.Declarant.HasWorkStudyPosition {
		hasPosition = 1
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO records (id, batch_id, declarant_name, student_id, college,
		                     job_title, department_id, has_position, status, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			declarant_name = excluded.declarant_name,
			student_id = excluded.student_id,
			college = excluded.college,
			job_title = excluded.job_title,
			department_id = excluded.department_id,
			has_position = excluded.has_position,
			status = excluded.status,
			comment = excluded.comment`,
		r.ID, r.BatchID, r.Declarant.Name, r.Declarant.StudentID, r.Declarant.College,
		r.Declarant.JobTitle, r.Declarant.DepartmentID, hasPosition, r.Status, r.Comment); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM work_items WHERE record_id = ?`, r.ID); err != nil {
		return err
	}
	for seq, item := range r.WorkItems {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO work_items (record_id, seq, description, hours) VALUES (?, ?, ?, ?)`,
			r.ID, seq, item.Description, item.Hours.Value.String()); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM includes WHERE record_id = ?`, r.ID); err != nil {
		return err
	}
	for seq, in := range r.Includes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO includes (record_id, source_record_id, hours, seq) VALUES (?, ?, ?, ?)`,
			r.ID, in.SourceRecordID, in.Hours.Value.String(), seq); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) SetStatus(ctx context.Context, batchID payroll.BatchID, status payroll.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.batchExists(ctx, batchID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE records SET status = ? WHERE batch_id = ?`, status, batchID)
	return err
}

// =============================================================================
// LEDGER SAVES - Atomic whole-batch writes
// =============================================================================

// SaveLedgers replaces every inclusion entry of the batch with the
// payload, in one transaction. Last writer wins. An audit row is kept
// per save.
func (s *Store) SaveLedgers(ctx context.Context, batchID payroll.BatchID, items []payroll.LedgerItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.batchExists(ctx, batchID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM includes WHERE record_id IN
			(SELECT id FROM records WHERE batch_id = ?)`, batchID); err != nil {
		return err
	}

	for _, item := range items {
		for seq, in := range item.Includes {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO includes (record_id, source_record_id, hours, seq) VALUES (?, ?, ?, ?)`,
				item.RecordID, in.SourceRecordID, in.Hours.Value.String(), seq); err != nil {
				return err
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_saves (id, batch_id, item_count, saved_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), batchID, len(items),
		time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) ClearLedgers(ctx context.Context, batchID payroll.BatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.batchExists(ctx, batchID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM includes WHERE record_id IN
			(SELECT id FROM records WHERE batch_id = ?)`, batchID)
	return err
}

// CountLedgerSaves returns the number of audit rows for a batch.
func (s *Store) CountLedgerSaves(ctx context.Context, batchID payroll.BatchID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_saves WHERE batch_id = ?`, batchID).Scan(&n)
	return n, err
}

func (s *Store) batchExists(ctx context.Context, id payroll.BatchID) error {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM batches WHERE id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return payroll.ErrBatchNotFound
	}
	return nil
}
