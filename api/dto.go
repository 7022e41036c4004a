/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

HOURS ON THE WIRE:
  Internally hours are decimal; on the wire they are float64. The
  precision-sensitive values (display strings, wages) are rendered
  server-side from the decimals, so wire floats are display-only.

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/report.go: ReportRow, the source of ReportRowDTO
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/yqwork/payroll-engine/payroll"
)

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// DepartmentDTO represents a department in API responses.
type DepartmentDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Desc string `json:"desc,omitempty"`
}

// BatchDTO represents a declaration period.
type BatchDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateBatchRequest is the request to open a new declaration period.
type CreateBatchRequest struct {
	Name string `json:"name"`
}

// WorkItemDTO is one declared work line.
type WorkItemDTO struct {
	Description string  `json:"description"`
	Hours       float64 `json:"hours"`
}

// IncludeDTO is one inclusion-ledger entry.
type IncludeDTO struct {
	SourceRecordID int64   `json:"source_record_id"`
	Hours          float64 `json:"hours"`
}

// OutgoingDTO is one "paid out through" link of a record.
type OutgoingDTO struct {
	CarrierRecordID int64   `json:"carrier_record_id"`
	CarrierName     string  `json:"carrier_name"`
	DepartmentID    int64   `json:"department_id"`
	Hours           float64 `json:"hours"`
}

// RecordDTO represents a declaration record in API responses.
type RecordDTO struct {
	ID           int64         `json:"id"`
	BatchID      int64         `json:"batch_id"`
	Name         string        `json:"name"`
	StudentID    string        `json:"student_id,omitempty"`
	College      string        `json:"college,omitempty"`
	JobTitle     string        `json:"job_title,omitempty"`
	DepartmentID int64         `json:"department_id"`
	HasPosition  bool          `json:"has_position"`
	Status       int           `json:"status"`
	Comment      string        `json:"comment,omitempty"`
	WorkItems    []WorkItemDTO `json:"work_items"`
	Includes     []IncludeDTO  `json:"includes"`
	OwnHours     float64       `json:"own_hours"`
	CarriedHours float64       `json:"carried_hours"`
	PayableHours float64       `json:"payable_hours"`
	PaidThrough  []OutgoingDTO `json:"paid_through,omitempty"`
}

// OneKeyRequest advances every record of a batch to the given status.
type OneKeyRequest struct {
	Status int `json:"status"`
}

// LedgerItemDTO is one element of the save payload.
type LedgerItemDTO struct {
	RecordID int64        `json:"id"`
	Includes []IncludeDTO `json:"includes"`
}

// SaveLedgersRequest is the whole-batch save payload: only the ledger
// is ever written back, never work items or declarant fields.
type SaveLedgersRequest struct {
	Items []LedgerItemDTO `json:"data"`
}

// LeftoverDTO is a source whose excess could not be fully placed.
type LeftoverDTO struct {
	RecordID int64   `json:"record_id"`
	Name     string  `json:"name"`
	Unplaced float64 `json:"unplaced_hours"`
}

// RedistributeResponse is the engine preview: the redistributed working
// set plus any silently under-allocated sources. Nothing is persisted
// until the operator saves.
type RedistributeResponse struct {
	Records   []RecordDTO   `json:"records"`
	Leftovers []LeftoverDTO `json:"leftovers"`
}

// IncludedSourceDTO is one resolved ledger entry on a report row.
type IncludedSourceDTO struct {
	SourceRecordID int64   `json:"source_record_id"`
	Name           string  `json:"name"`
	DepartmentID   int64   `json:"department_id"`
	DepartmentName string  `json:"department_name"`
	Hours          float64 `json:"hours"`
}

// ReportRowDTO is one row of the final payroll sheet, carrying exactly
// the fields the table renderer and the spreadsheet exporter consume.
type ReportRowDTO struct {
	RecordID              int64               `json:"record_id"`
	Index                 int                 `json:"index"`
	Name                  string              `json:"name"`
	College               string              `json:"college,omitempty"`
	StudentID             string              `json:"student_id,omitempty"`
	JobTitle              string              `json:"job_title,omitempty"`
	DepartmentID          int64               `json:"department_id"`
	DepartmentName        string              `json:"department_name"`
	RowSpan               int                 `json:"row_span"`
	DepartmentSummaryText string              `json:"department_summary_text,omitempty"`
	WorkItemsText         string              `json:"work_items_text"`
	OwnHours              float64             `json:"own_hours"`
	CarriedHours          float64             `json:"carried_hours"`
	TotalHours            float64             `json:"total_hours"`
	HoursText             string              `json:"hours_text"`
	Includes              []IncludedSourceDTO `json:"includes,omitempty"`
	IncludedText          string              `json:"included_text,omitempty"`
	Rating                string              `json:"rating"`
	OwnWage               float64             `json:"own_wage"`
	TotalWage             float64             `json:"total_wage"`
}

// ReportTotalsDTO is the summary line under the sheet.
type ReportTotalsDTO struct {
	Rows      int     `json:"rows"`
	Excellent int     `json:"excellent"`
	Competent int     `json:"competent"`
	TotalWage float64 `json:"total_wage"`
}

// ReportDTO is the aggregator output.
type ReportDTO struct {
	Rows   []ReportRowDTO  `json:"rows"`
	Totals ReportTotalsDTO `json:"totals"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a demo scenario to seed.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRecordDTO(r *payroll.DeclarationRecord, all []payroll.DeclarationRecord) RecordDTO {
	dto := RecordDTO{
		ID:           int64(r.ID),
		BatchID:      int64(r.BatchID),
		Name:         r.Declarant.Name,
		StudentID:    r.Declarant.StudentID,
		College:      r.Declarant.College,
		JobTitle:     r.Declarant.JobTitle,
		DepartmentID: int64(r.Declarant.DepartmentID),
		HasPosition:  r.Declarant.HasWorkStudyPosition,
		Status:       int(r.Status),
		Comment:      r.Comment,
		WorkItems:    make([]WorkItemDTO, len(r.WorkItems)),
		Includes:     make([]IncludeDTO, len(r.Includes)),
		OwnHours:     r.OwnHours().Float64(),
		CarriedHours: r.CarriedHours().Float64(),
		PayableHours: r.PayableHours().Float64(),
	}
	for i, item := range r.WorkItems {
		dto.WorkItems[i] = WorkItemDTO{Description: item.Description, Hours: item.Hours.Float64()}
	}
	for i, in := range r.Includes {
		dto.Includes[i] = IncludeDTO{SourceRecordID: int64(in.SourceRecordID), Hours: in.Hours.Float64()}
	}
	for _, out := range payroll.OutgoingEntries(all, r.ID) {
		dto.PaidThrough = append(dto.PaidThrough, OutgoingDTO{
			CarrierRecordID: int64(out.CarrierRecordID),
			CarrierName:     out.CarrierName,
			DepartmentID:    int64(out.DepartmentID),
			Hours:           out.Hours.Float64(),
		})
	}
	return dto
}

func toRecordDTOs(records []payroll.DeclarationRecord) []RecordDTO {
	dtos := make([]RecordDTO, len(records))
	for i := range records {
		dtos[i] = toRecordDTO(&records[i], records)
	}
	return dtos
}

func toReportDTO(report *payroll.Report) ReportDTO {
	dto := ReportDTO{
		Rows: make([]ReportRowDTO, len(report.Rows)),
		Totals: ReportTotalsDTO{
			Rows:      report.Totals.Rows,
			Excellent: report.Totals.Excellent,
			Competent: report.Totals.Competent,
			TotalWage: toFloat(report.Totals.TotalWage),
		},
	}
	for i, row := range report.Rows {
		r := ReportRowDTO{
			RecordID:              int64(row.RecordID),
			Index:                 row.Index,
			Name:                  row.Name,
			College:               row.College,
			StudentID:             row.StudentID,
			JobTitle:              row.JobTitle,
			DepartmentID:          int64(row.DepartmentID),
			DepartmentName:        row.DepartmentName,
			RowSpan:               row.RowSpan,
			DepartmentSummaryText: row.DepartmentSummaryText,
			WorkItemsText:         row.WorkItemsText,
			OwnHours:              row.OwnHours.Float64(),
			CarriedHours:          row.CarriedHours.Float64(),
			TotalHours:            row.TotalHours.Float64(),
			HoursText:             row.HoursText,
			IncludedText:          row.IncludedText,
			Rating:                row.Rating,
			OwnWage:               toFloat(row.OwnWage),
			TotalWage:             toFloat(row.TotalWage),
		}
		for _, in := range row.Includes {
			r.Includes = append(r.Includes, IncludedSourceDTO{
				SourceRecordID: int64(in.SourceRecordID),
				Name:           in.Name,
				DepartmentID:   int64(in.DepartmentID),
				DepartmentName: in.DepartmentName,
				Hours:          in.Hours.Float64(),
			})
		}
		dto.Rows[i] = r
	}
	return dto
}
