package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yqwork/payroll-engine/payroll"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedBatch(t *testing.T, s *Store) payroll.BatchID {
	t.Helper()
	batch, err := s.CreateBatch(context.Background(), "2026-06 工时")
	require.NoError(t, err)
	return batch.ID
}

func testRecord(id int64, batchID payroll.BatchID) payroll.DeclarationRecord {
	return payroll.DeclarationRecord{
		ID:      payroll.RecordID(id),
		BatchID: batchID,
		Declarant: payroll.Declarant{
			Name:                 "张三",
			StudentID:            "20230101",
			College:              "文学院",
			JobTitle:             "助理",
			DepartmentID:         1,
			HasWorkStudyPosition: true,
		},
		WorkItems: []payroll.WorkItem{
			{Description: "值班", Hours: payroll.NewHours(12.5)},
			{Description: "整理", Hours: payroll.NewHours(3)},
		},
		Status:  payroll.StatusSubmitted,
		Comment: "六月",
	}
}

// =============================================================================
// DEPARTMENTS AND BATCHES
// =============================================================================

func TestSaveAndListDepartments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDepartment(ctx, payroll.Department{ID: 2, Name: "信息中心"}))
	require.NoError(t, store.SaveDepartment(ctx, payroll.Department{ID: 1, Name: "图书馆", Desc: "Library"}))

	departments, err := store.ListDepartments(ctx)
	require.NoError(t, err)
	require.Len(t, departments, 2)
	assert.Equal(t, "图书馆", departments[0].Name) // ordered by id
	assert.Equal(t, "Library", departments[0].Desc)

	// Upsert replaces the name.
	require.NoError(t, store.SaveDepartment(ctx, payroll.Department{ID: 2, Name: "网络信息中心"}))
	departments, err = store.ListDepartments(ctx)
	require.NoError(t, err)
	assert.Equal(t, "网络信息中心", departments[1].Name)
}

func TestCreateAndGetBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch, err := store.CreateBatch(ctx, "2026-06 工时")
	require.NoError(t, err)
	assert.NotZero(t, batch.ID)

	got, err := store.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-06 工时", got.Name)

	_, err = store.GetBatch(ctx, 9999)
	assert.True(t, errors.Is(err, payroll.ErrBatchNotFound))
}

func TestListRecords_UnknownBatch(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ListRecords(context.Background(), 42)
	assert.True(t, errors.Is(err, payroll.ErrBatchNotFound))
}

// =============================================================================
// RECORDS
// =============================================================================

func TestSaveRecord_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	batchID := seedBatch(t, store)

	r := testRecord(1, batchID)
	require.NoError(t, store.SaveRecord(ctx, r))

	records, err := store.ListRecords(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, r.Declarant, got.Declarant)
	assert.Equal(t, r.Status, got.Status)
	assert.Equal(t, r.Comment, got.Comment)
	require.Len(t, got.WorkItems, 2)
	assert.Equal(t, "值班", got.WorkItems[0].Description)
	assert.True(t, got.WorkItems[0].Hours.Equal(payroll.NewHours(12.5)))
	assert.True(t, got.OwnHours().Equal(payroll.NewHours(15.5)))
	assert.Empty(t, got.Includes)
}

func TestSaveRecord_UpsertReplacesWorkItems(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	batchID := seedBatch(t, store)

	r := testRecord(1, batchID)
	require.NoError(t, store.SaveRecord(ctx, r))

	r.WorkItems = []payroll.WorkItem{{Description: "补录", Hours: payroll.NewHours(7)}}
	r.Status = payroll.StatusFinanceApproved
	require.NoError(t, store.SaveRecord(ctx, r))

	records, err := store.ListRecords(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].WorkItems, 1)
	assert.True(t, records[0].OwnHours().Equal(payroll.NewHours(7)))
	assert.Equal(t, payroll.StatusFinanceApproved, records[0].Status)
}

func TestSetStatus_AdvancesWholeBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	batchID := seedBatch(t, store)

	require.NoError(t, store.SaveRecord(ctx, testRecord(1, batchID)))
	require.NoError(t, store.SaveRecord(ctx, testRecord(2, batchID)))

	require.NoError(t, store.SetStatus(ctx, batchID, payroll.StatusFinanceApproved))

	records, err := store.ListRecords(ctx, batchID)
	require.NoError(t, err)
	for _, r := range records {
		assert.Equal(t, payroll.StatusFinanceApproved, r.Status)
	}

	err = store.SetStatus(ctx, 9999, payroll.StatusSubmitted)
	assert.True(t, errors.Is(err, payroll.ErrBatchNotFound))
}

// =============================================================================
// LEDGER SAVES
// =============================================================================

func TestSaveLedgers_ReplacesWholeBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	batchID := seedBatch(t, store)

	require.NoError(t, store.SaveRecord(ctx, testRecord(1, batchID)))
	require.NoError(t, store.SaveRecord(ctx, testRecord(2, batchID)))
	require.NoError(t, store.SaveRecord(ctx, testRecord(3, batchID)))

	// First save: record 1 carries hours of records 2 and 3.
	first := []payroll.LedgerItem{{
		RecordID: 1,
		Includes: []payroll.IncludeEntry{
			{SourceRecordID: 2, Hours: payroll.NewHours(4)},
			{SourceRecordID: 3, Hours: payroll.NewHours(2.5)},
		},
	}}
	require.NoError(t, store.SaveLedgers(ctx, batchID, first))

	records, err := store.ListRecords(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, records[0].Includes, 2)
	assert.Equal(t, payroll.RecordID(2), records[0].Includes[0].SourceRecordID)
	assert.True(t, records[0].Includes[1].Hours.Equal(payroll.NewHours(2.5)))

	// Second save drops record 1's ledger and gives record 2 one entry:
	// last writer wins, nothing merged.
	second := []payroll.LedgerItem{{
		RecordID: 2,
		Includes: []payroll.IncludeEntry{{SourceRecordID: 3, Hours: payroll.NewHours(1)}},
	}}
	require.NoError(t, store.SaveLedgers(ctx, batchID, second))

	records, err = store.ListRecords(ctx, batchID)
	require.NoError(t, err)
	assert.Empty(t, records[0].Includes)
	require.Len(t, records[1].Includes, 1)
	assert.Equal(t, payroll.RecordID(3), records[1].Includes[0].SourceRecordID)

	// One audit row per save.
	saves, err := store.CountLedgerSaves(ctx, batchID)
	require.NoError(t, err)
	assert.Equal(t, 2, saves)
}

func TestSaveLedgers_UnknownBatch(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveLedgers(context.Background(), 77, nil)
	assert.True(t, errors.Is(err, payroll.ErrBatchNotFound))
}

func TestClearLedgers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	batchID := seedBatch(t, store)

	require.NoError(t, store.SaveRecord(ctx, testRecord(1, batchID)))
	require.NoError(t, store.SaveRecord(ctx, testRecord(2, batchID)))
	require.NoError(t, store.SaveLedgers(ctx, batchID, []payroll.LedgerItem{{
		RecordID: 1,
		Includes: []payroll.IncludeEntry{{SourceRecordID: 2, Hours: payroll.NewHours(3)}},
	}}))

	require.NoError(t, store.ClearLedgers(ctx, batchID))

	records, err := store.ListRecords(ctx, batchID)
	require.NoError(t, err)
	for _, r := range records {
		assert.Empty(t, r.Includes)
	}
}

func TestHoursStoredAsExactDecimalText(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	batchID := seedBatch(t, store)

	r := testRecord(1, batchID)
	r.WorkItems = []payroll.WorkItem{{Description: "值班", Hours: payroll.NewHours(0.1)}}
	require.NoError(t, store.SaveRecord(ctx, r))

	records, err := store.ListRecords(ctx, batchID)
	require.NoError(t, err)
	assert.Equal(t, "0.1", records[0].WorkItems[0].Hours.String())
}
