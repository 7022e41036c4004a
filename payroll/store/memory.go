// Package store provides an in-memory RecordStore for tests and demos.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/yqwork/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	departments map[payroll.DepartmentID]payroll.Department
	batches     map[payroll.BatchID]payroll.Batch
	records     map[payroll.BatchID][]payroll.DeclarationRecord
	nextBatchID payroll.BatchID
}

var _ payroll.RecordStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		departments: make(map[payroll.DepartmentID]payroll.Department),
		batches:     make(map[payroll.BatchID]payroll.Batch),
		records:     make(map[payroll.BatchID][]payroll.DeclarationRecord),
		nextBatchID: 1,
	}
}

func (m *Memory) ListDepartments(_ context.Context) ([]payroll.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]payroll.Department, 0, len(m.departments))
	for _, d := range m.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveDepartment(_ context.Context, d payroll.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.departments[d.ID] = d
	return nil
}

func (m *Memory) ListBatches(_ context.Context) ([]payroll.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]payroll.Batch, 0, len(m.batches))
	for _, b := range m.batches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) GetBatch(_ context.Context, id payroll.BatchID) (*payroll.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.batches[id]
	if !ok {
		return nil, payroll.ErrBatchNotFound
	}
	return &b, nil
}

func (m *Memory) CreateBatch(_ context.Context, name string) (*payroll.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := payroll.Batch{ID: m.nextBatchID, Name: name}
	m.nextBatchID++
	m.batches[b.ID] = b
	return &b, nil
}

func (m *Memory) ListRecords(_ context.Context, batchID payroll.BatchID) ([]payroll.DeclarationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.batches[batchID]; !ok {
		return nil, payroll.ErrBatchNotFound
	}
	return payroll.CloneRecords(m.records[batchID]), nil
}

func (m *Memory) SaveRecord(_ context.Context, r payroll.DeclarationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.batches[r.BatchID]; !ok {
		return payroll.ErrBatchNotFound
	}
	records := m.records[r.BatchID]
	for i := range records {
		if records[i].ID == r.ID {
			records[i] = r.Clone()
			return nil
		}
	}
	m.records[r.BatchID] = append(records, r.Clone())
	return nil
}

func (m *Memory) SetStatus(_ context.Context, batchID payroll.BatchID, status payroll.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.batches[batchID]; !ok {
		return payroll.ErrBatchNotFound
	}
	records := m.records[batchID]
	for i := range records {
		records[i].Status = status
	}
	return nil
}

// SaveLedgers replaces every record's ledger at once: a record missing
// from items simply ends up with no inclusions. Last writer wins.
func (m *Memory) SaveLedgers(_ context.Context, batchID payroll.BatchID, items []payroll.LedgerItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.batches[batchID]; !ok {
		return payroll.ErrBatchNotFound
	}

	byRecord := make(map[payroll.RecordID][]payroll.IncludeEntry, len(items))
	for _, item := range items {
		byRecord[item.RecordID] = append([]payroll.IncludeEntry(nil), item.Includes...)
	}

	records := m.records[batchID]
	for i := range records {
		records[i].Includes = byRecord[records[i].ID]
	}
	return nil
}

func (m *Memory) ClearLedgers(_ context.Context, batchID payroll.BatchID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.batches[batchID]; !ok {
		return payroll.ErrBatchNotFound
	}
	records := m.records[batchID]
	for i := range records {
		records[i].Includes = nil
	}
	return nil
}
