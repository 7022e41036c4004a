/*
Package payroll provides the core work-study payroll engine.

PURPOSE:
  This package contains the data model and algorithms for turning a
  batch of monthly work-hour declarations into an approved payroll
  sheet. Two computations matter:

  - Redistribute: moves "excess" hours (hours belonging to declarants
    without a work-study position, or hours over the monthly cap) onto
    other eligible declarants' records via the inclusion ledger.
  - BuildReport: rolls the post-redistribution record graph back up
    into one row per eligible declarant, with department-level row
    grouping, ready for rendering and spreadsheet export.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: A decimal quantity of work hours (no float drift in pay math)
  - DeclarationRecord: One declarant's submission for one period
  - IncludeEntry: "I am carrying N hours that belong to record X"
  - Constants: Period constants (hourly wage, hour cap), injected, not global

DESIGN PRINCIPLES:
  1. Purity: Redistribute and BuildReport never mutate their inputs
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Flat arena: Records reference each other by id, never by pointer,
     so clone/reset/serialize are plain structural copies
  4. Traceability: Every moved hour is an explicit ledger entry

USAGE:
  out := payroll.Redistribute(records, payroll.DefaultConstants())
  report, err := payroll.BuildReport(out, departments, payroll.DefaultConstants())

SEE ALSO:
  - redistribute.go: The four-pass allocation algorithm
  - report.go: Report aggregation
  - validate.go: Upstream input validation and ledger-edit checks
*/
package payroll

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - Decimal quantity of work hours
// =============================================================================

type Hours struct {
	Value decimal.Decimal
}

func NewHours(value float64) Hours {
	return Hours{Value: decimal.NewFromFloat(value)}
}

func NewHoursFromInt(value int) Hours {
	return Hours{Value: decimal.NewFromInt(int64(value))}
}

func ZeroHours() Hours { return Hours{Value: decimal.Zero} }

func (h Hours) Add(o Hours) Hours            { return Hours{Value: h.Value.Add(o.Value)} }
func (h Hours) Sub(o Hours) Hours            { return Hours{Value: h.Value.Sub(o.Value)} }
func (h Hours) IsZero() bool                 { return h.Value.IsZero() }
func (h Hours) IsPositive() bool             { return h.Value.IsPositive() }
func (h Hours) IsNegative() bool             { return h.Value.IsNegative() }
func (h Hours) GreaterThan(o Hours) bool     { return h.Value.GreaterThan(o.Value) }
func (h Hours) GreaterOrEqual(o Hours) bool  { return h.Value.GreaterThanOrEqual(o.Value) }
func (h Hours) LessOrEqual(o Hours) bool     { return h.Value.LessThanOrEqual(o.Value) }
func (h Hours) Equal(o Hours) bool           { return h.Value.Equal(o.Value) }

// String renders without trailing zeros: "40", "7.5".
func (h Hours) String() string { return h.Value.String() }

// Float64 is for DTO conversion only; pay math stays decimal.
func (h Hours) Float64() float64 {
	f, _ := h.Value.Float64()
	return f
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RecordID int64
type DepartmentID int64
type BatchID int64

// =============================================================================
// RECORD STATUS - Approval lifecycle
// =============================================================================

// Status tracks a record through the review pipeline. Only records past
// StatusFinanceApproved enter redistribution and reporting.
type Status int

const (
	StatusDraft           Status = 0
	StatusSubmitted       Status = 1
	StatusDeptApproved    Status = 2
	StatusFinanceApproved Status = 3
)

// Approved reports whether the record cleared finance review.
func (s Status) Approved() bool { return s >= StatusFinanceApproved }

// =============================================================================
// DECLARATION RECORD - One declarant's submission for one period
// =============================================================================

// Declarant is the user profile attached to a record. Only the fields
// the engine and the report need; account/permission data lives elsewhere.
type Declarant struct {
	Name                 string
	StudentID            string
	College              string
	JobTitle             string
	DepartmentID         DepartmentID
	HasWorkStudyPosition bool
}

// WorkItem is one dated line of declared work. Hours must be positive;
// ValidateRecords rejects anything else before the engine runs.
type WorkItem struct {
	Description string
	Hours       Hours
}

// IncludeEntry is one inclusion-ledger link: the owning record carries
// Hours of SourceRecordID's own hours and pays them out through itself.
// A source may appear at most once per carrier, but its excess can be
// split across several carriers.
type IncludeEntry struct {
	SourceRecordID RecordID
	Hours          Hours
}

// DeclarationRecord is the unit the engine operates on.
//
// INVARIANTS:
//   - No entry in Includes references the record's own ID
//   - The include graph across a batch is acyclic
//   - Only declarants with HasWorkStudyPosition receive Includes entries
type DeclarationRecord struct {
	ID        RecordID
	BatchID   BatchID
	Declarant Declarant
	WorkItems []WorkItem
	Includes  []IncludeEntry
	Status    Status
	Comment   string
}

// OwnHours is the sum of the record's declared work items.
func (r *DeclarationRecord) OwnHours() Hours {
	total := ZeroHours()
	for _, item := range r.WorkItems {
		total = total.Add(item.Hours)
	}
	return total
}

// CarriedHours is the sum of hours this record carries for others.
func (r *DeclarationRecord) CarriedHours() Hours {
	total := ZeroHours()
	for _, in := range r.Includes {
		total = total.Add(in.Hours)
	}
	return total
}

// PayableHours is what is actually paid to this record's declarant.
func (r *DeclarationRecord) PayableHours() Hours {
	return r.OwnHours().Add(r.CarriedHours())
}

// Clone deep-copies the record. Slices are copied; Declarant is a value.
func (r DeclarationRecord) Clone() DeclarationRecord {
	out := r
	out.WorkItems = append([]WorkItem(nil), r.WorkItems...)
	out.Includes = append([]IncludeEntry(nil), r.Includes...)
	return out
}

// CloneRecords deep-copies a working set. The engine and every manual
// edit path operate on such a copy, never on the fetched originals.
func CloneRecords(records []DeclarationRecord) []DeclarationRecord {
	out := make([]DeclarationRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// OutgoingHours sums the hours of recordID already pushed into other
// records' ledgers across the whole set ("already carried elsewhere").
func OutgoingHours(records []DeclarationRecord, recordID RecordID) Hours {
	total := ZeroHours()
	for i := range records {
		for _, in := range records[i].Includes {
			if in.SourceRecordID == recordID {
				total = total.Add(in.Hours)
			}
		}
	}
	return total
}

// OutgoingEntry is one "paid out through" link, resolved for display.
type OutgoingEntry struct {
	CarrierRecordID RecordID
	CarrierName     string
	DepartmentID    DepartmentID
	Hours           Hours
}

// OutgoingEntries lists where recordID's hours are being paid out, in
// carrier list order.
func OutgoingEntries(records []DeclarationRecord, recordID RecordID) []OutgoingEntry {
	var out []OutgoingEntry
	for i := range records {
		carrier := &records[i]
		for _, in := range carrier.Includes {
			if in.SourceRecordID == recordID {
				out = append(out, OutgoingEntry{
					CarrierRecordID: carrier.ID,
					CarrierName:     carrier.Declarant.Name,
					DepartmentID:    carrier.Declarant.DepartmentID,
					Hours:           in.Hours,
				})
			}
		}
	}
	return out
}

// =============================================================================
// DEPARTMENT / BATCH
// =============================================================================

type Department struct {
	ID   DepartmentID
	Name string
	Desc string
}

// Batch is one declaration period ("work hours of 2025-06"). Records
// belong to exactly one batch; redistribution and reporting are
// batch-scoped.
type Batch struct {
	ID   BatchID
	Name string
}

// =============================================================================
// PERIOD CONSTANTS - Injected configuration, never package globals
// =============================================================================

// Constants holds the period pay constants. Both the engine and the
// aggregator take them as an explicit parameter so the computations stay
// pure and independently testable.
type Constants struct {
	// HourlyWage is the currency paid per hour.
	HourlyWage decimal.Decimal

	// CapHours is the maximum payable hours per record per period.
	CapHours Hours
}

// DefaultConstants returns the program defaults: 15 currency units per
// hour, 40 hours per month (600 per record per month).
func DefaultConstants() Constants {
	return Constants{
		HourlyWage: decimal.NewFromInt(15),
		CapHours:   NewHoursFromInt(40),
	}
}

// Wage converts hours to currency at the period rate.
func (c Constants) Wage(h Hours) decimal.Decimal {
	return h.Value.Mul(c.HourlyWage)
}

// CapWage is the maximum payable wage per record per period.
func (c Constants) CapWage() decimal.Decimal {
	return c.Wage(c.CapHours)
}

// =============================================================================
// SAVE PAYLOAD - The only thing ever written back
// =============================================================================

// LedgerItem is one element of the save payload: the final inclusion
// ledger for a record after redistribution and manual review. Work items
// and declarant fields are never written back.
type LedgerItem struct {
	RecordID RecordID
	Includes []IncludeEntry
}

// LedgerItems extracts the save payload from a working set.
func LedgerItems(records []DeclarationRecord) []LedgerItem {
	items := make([]LedgerItem, len(records))
	for i := range records {
		items[i] = LedgerItem{
			RecordID: records[i].ID,
			Includes: append([]IncludeEntry(nil), records[i].Includes...),
		}
	}
	return items
}
