/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the work-study payroll core via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Departments:
    GET    /api/departments                    List departments

  Batches (declaration periods):
    GET    /api/batches                        List batches
    POST   /api/batches                        Open a new batch
    GET    /api/batches/{id}/records           Records with ledgers and paid-through view
    POST   /api/batches/{id}/records/one-key   Advance every record's status

  Payroll sheet workflow:
    POST   /api/batches/{id}/redistribute      Run the engine (preview, nothing persisted)
    PUT    /api/batches/{id}/ledgers           Save the reviewed ledgers (atomic, whole batch)
    POST   /api/batches/{id}/ledgers/reset     Drop all ledgers (back to pristine)
    GET    /api/batches/{id}/report            Final payroll sheet

  Scenarios:
    GET    /api/scenarios                      List demo scenarios
    POST   /api/scenarios/load                 Seed a demo scenario

WORKFLOW:
  Collect records -> one-key to finance-approved -> redistribute
  (preview) -> operator tweaks the ledgers client-side -> save ->
  report. Re-running the engine always starts from the pristine
  records, never from its own output; the reset endpoint clears a
  saved ledger for that purpose.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, cyclic ledgers
  - 404: Batch or record not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yqwork/payroll-engine/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     payroll.RecordStore
	Constants payroll.Constants

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store and period constants.
func NewHandler(store payroll.RecordStore, constants payroll.Constants) *Handler {
	return &Handler{Store: store, Constants: constants}
}

// =============================================================================
// DEPARTMENT HANDLERS
// =============================================================================

// ListDepartments returns all departments.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Store.ListDepartments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list departments", err)
		return
	}

	dtos := make([]DepartmentDTO, len(departments))
	for i, d := range departments {
		dtos[i] = DepartmentDTO{ID: int64(d.ID), Name: d.Name, Desc: d.Desc}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// BATCH HANDLERS
// =============================================================================

// ListBatches returns all declaration periods.
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.Store.ListBatches(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list batches", err)
		return
	}

	dtos := make([]BatchDTO, len(batches))
	for i, b := range batches {
		dtos[i] = BatchDTO{ID: int64(b.ID), Name: b.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBatch opens a new declaration period.
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Batch name is required", nil)
		return
	}

	batch, err := h.Store.CreateBatch(r.Context(), req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create batch", err)
		return
	}
	writeJSON(w, http.StatusCreated, BatchDTO{ID: int64(batch.ID), Name: batch.Name})
}

// ListRecords returns a batch's records, each with its inclusion ledger
// and the resolved "paid out through" view.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	batchID, ok := h.batchID(w, r)
	if !ok {
		return
	}

	records, err := h.Store.ListRecords(r.Context(), batchID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTOs(records))
}

// OneKeyStatus advances every record of a batch to the given status.
func (h *Handler) OneKeyStatus(w http.ResponseWriter, r *http.Request) {
	batchID, ok := h.batchID(w, r)
	if !ok {
		return
	}

	var req OneKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	status := payroll.Status(req.Status)
	if status < payroll.StatusDraft || status > payroll.StatusFinanceApproved {
		writeError(w, http.StatusBadRequest, "Unknown status", nil)
		return
	}

	if err := h.Store.SetStatus(r.Context(), batchID, status); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYROLL SHEET WORKFLOW
// =============================================================================

// RunRedistribution loads the batch, validates it, runs the four-pass
// engine over the approved records, and returns the result as a
// preview. Nothing is persisted; the operator reviews (and possibly
// tweaks) the ledgers before saving.
func (h *Handler) RunRedistribution(w http.ResponseWriter, r *http.Request) {
	batchID, ok := h.batchID(w, r)
	if !ok {
		return
	}

	records, err := h.Store.ListRecords(r.Context(), batchID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	if err := payroll.ValidateRecords(records); err != nil {
		writeError(w, http.StatusBadRequest, "Batch failed validation", err)
		return
	}

	working := payroll.PrepareWorkingSet(records)
	out := payroll.Redistribute(working, h.Constants)

	resp := RedistributeResponse{Records: toRecordDTOs(out)}
	for _, left := range payroll.UnplacedExcess(out, h.Constants) {
		resp.Leftovers = append(resp.Leftovers, LeftoverDTO{
			RecordID: int64(left.RecordID),
			Name:     left.Name,
			Unplaced: left.Unplaced.Float64(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// SaveLedgers persists the reviewed inclusion ledgers for a whole
// batch. The edited ledgers are validated (including the acyclicity
// check manual edits can violate) against the batch before the atomic
// write.
func (h *Handler) SaveLedgers(w http.ResponseWriter, r *http.Request) {
	batchID, ok := h.batchID(w, r)
	if !ok {
		return
	}

	var req SaveLedgersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	records, err := h.Store.ListRecords(r.Context(), batchID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	// Apply the payload to a working copy and validate the result as a
	// whole: a payload row for an unknown record is rejected, a record
	// absent from the payload ends up with an empty ledger.
	byID := make(map[payroll.RecordID]int, len(records))
	working := payroll.CloneRecords(records)
	for i := range working {
		byID[working[i].ID] = i
		working[i].Includes = nil
	}

	items := make([]payroll.LedgerItem, 0, len(req.Items))
	for _, item := range req.Items {
		idx, ok := byID[payroll.RecordID(item.RecordID)]
		if !ok {
			writeError(w, http.StatusBadRequest, "Ledger references a record outside the batch", payroll.ErrRecordNotFound)
			return
		}
		for _, in := range item.Includes {
			working[idx].Includes = append(working[idx].Includes, payroll.IncludeEntry{
				SourceRecordID: payroll.RecordID(in.SourceRecordID),
				Hours:          payroll.NewHours(in.Hours),
			})
		}
		items = append(items, payroll.LedgerItem{
			RecordID: working[idx].ID,
			Includes: working[idx].Includes,
		})
	}

	if err := payroll.ValidateLedger(working); err != nil {
		writeError(w, http.StatusBadRequest, "Ledger failed validation", err)
		return
	}

	if err := h.Store.SaveLedgers(r.Context(), batchID, items); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetLedgers drops every inclusion entry of a batch, returning it to
// the pristine pre-redistribution state.
func (h *Handler) ResetLedgers(w http.ResponseWriter, r *http.Request) {
	batchID, ok := h.batchID(w, r)
	if !ok {
		return
	}

	if err := h.Store.ClearLedgers(r.Context(), batchID); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetReport builds the final payroll sheet from the saved ledgers.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	batchID, ok := h.batchID(w, r)
	if !ok {
		return
	}

	records, err := h.Store.ListRecords(r.Context(), batchID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	departments, err := h.Store.ListDepartments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list departments", err)
		return
	}

	report, err := payroll.BuildReport(records, departments, h.Constants)
	if err != nil {
		if payroll.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "Report failed validation", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) batchID(w http.ResponseWriter, r *http.Request) (payroll.BatchID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid batch id", err)
		return 0, false
	}
	return payroll.BatchID(id), true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case payroll.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case payroll.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	default:
		writeError(w, http.StatusInternalServerError, "Storage failure", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
