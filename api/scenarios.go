/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for testing and demos. Each scenario creates departments, a
	declaration batch, and finance-approved records that demonstrate a
	specific redistribution behavior.

AVAILABLE SCENARIOS:

	library-month:     Same-department overflow, one over-cap assistant
	cross-department:  Overflow that can only be carried by other departments
	no-position:       Records without a work-study position mixed in

HOW SCENARIOS WORK:
 1. Create departments
 2. Open a batch
 3. Save records already at finance-approved status
 4. The operator then runs /redistribute and /report against the batch

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "cross-department"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios write into whatever store the server runs on. Only use in
	development/demo environments.

SEE ALSO:
  - handlers.go: Batch and payroll workflow handlers
  - server.go: Route wiring
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/yqwork/payroll-engine/payroll"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "library-month",
		Name:        "Library Month",
		Description: "One library assistant over the monthly cap, a colleague with spare capacity",
	},
	{
		ID:          "cross-department",
		Name:        "Cross Department",
		Description: "Overflow hours that no same-department colleague can absorb",
	},
	{
		ID:          "no-position",
		Name:        "No Position",
		Description: "Helpers without a work-study position whose hours must be carried",
	},
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns all available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// CurrentScenario returns the currently loaded scenario ID.
func (h *Handler) CurrentScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": h.currentScenario})
}

// LoadScenario seeds the store with the requested scenario's data.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	var batch payroll.Batch
	var err error

	switch req.ScenarioID {
	case "library-month":
		batch, err = h.loadLibraryMonthScenario(ctx)
	case "cross-department":
		batch, err = h.loadCrossDepartmentScenario(ctx)
	case "no-position":
		batch, err = h.loadNoPositionScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]any{
		"scenario_id": req.ScenarioID,
		"batch_id":    int64(batch.ID),
	})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seedDepartments ensures the demo departments exist.
func (h *Handler) seedDepartments(ctx context.Context, departments []payroll.Department) error {
	for _, d := range departments {
		if err := h.Store.SaveDepartment(ctx, d); err != nil {
			return fmt.Errorf("save department %d: %w", d.ID, err)
		}
	}
	return nil
}

// seedBatch opens a batch and stores the given records in it, already
// finance-approved so the payroll workflow can start immediately.
func (h *Handler) seedBatch(ctx context.Context, name string, records []payroll.DeclarationRecord) (payroll.Batch, error) {
	batch, err := h.Store.CreateBatch(ctx, name)
	if err != nil {
		return payroll.Batch{}, fmt.Errorf("create batch: %w", err)
	}
	for i := range records {
		records[i].BatchID = batch.ID
		records[i].Status = payroll.StatusFinanceApproved
		if err := h.Store.SaveRecord(ctx, records[i]); err != nil {
			return payroll.Batch{}, fmt.Errorf("save record %d: %w", records[i].ID, err)
		}
	}
	return *batch, nil
}

func demoRecord(id int64, name, studentID string, deptID int64, hasPosition bool, hours float64) payroll.DeclarationRecord {
	return payroll.DeclarationRecord{
		ID: payroll.RecordID(id),
		Declarant: payroll.Declarant{
			Name:                 name,
			StudentID:            studentID,
			College:              "文学院",
			JobTitle:             "助理",
			DepartmentID:         payroll.DepartmentID(deptID),
			HasWorkStudyPosition: hasPosition,
		},
		WorkItems: []payroll.WorkItem{
			{Description: "日常值班", Hours: payroll.NewHours(hours)},
		},
	}
}

func (h *Handler) loadLibraryMonthScenario(ctx context.Context) (payroll.Batch, error) {
	if err := h.seedDepartments(ctx, []payroll.Department{
		{ID: 1, Name: "图书馆", Desc: "Library"},
	}); err != nil {
		return payroll.Batch{}, err
	}
	return h.seedBatch(ctx, "图书馆示例月", []payroll.DeclarationRecord{
		demoRecord(1, "张三", "20230101", 1, true, 52),
		demoRecord(2, "李四", "20230102", 1, true, 25),
		demoRecord(3, "王五", "20230103", 1, true, 38),
	})
}

func (h *Handler) loadCrossDepartmentScenario(ctx context.Context) (payroll.Batch, error) {
	if err := h.seedDepartments(ctx, []payroll.Department{
		{ID: 1, Name: "图书馆", Desc: "Library"},
		{ID: 2, Name: "信息中心", Desc: "IT center"},
	}); err != nil {
		return payroll.Batch{}, err
	}
	return h.seedBatch(ctx, "跨部门示例月", []payroll.DeclarationRecord{
		demoRecord(1, "张三", "20230101", 1, true, 55),
		demoRecord(2, "李四", "20230102", 1, true, 39),
		demoRecord(3, "王五", "20230103", 2, true, 20),
	})
}

func (h *Handler) loadNoPositionScenario(ctx context.Context) (payroll.Batch, error) {
	if err := h.seedDepartments(ctx, []payroll.Department{
		{ID: 1, Name: "图书馆", Desc: "Library"},
		{ID: 2, Name: "信息中心", Desc: "IT center"},
	}); err != nil {
		return payroll.Batch{}, err
	}
	return h.seedBatch(ctx, "无岗位示例月", []payroll.DeclarationRecord{
		demoRecord(1, "张三", "20230101", 1, false, 12),
		demoRecord(2, "李四", "20230102", 1, true, 30),
		demoRecord(3, "王五", "20230103", 2, true, 18),
	})
}
