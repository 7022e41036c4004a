/*
report.go - Final payroll sheet aggregation

PURPOSE:
  Rolls the saved record + ledger graph back up into one display row
  per eligible declarant and one merged cell per department: the
  numbers that are actually paid. Consumed by the table renderer and
  the spreadsheet exporter.

ROW SHAPE:
  - One row per position holder past finance approval, sorted by
    department id ascending, original order preserved within a
    department.
  - Ineligible and unapproved records appear only indirectly, as the
    names folded into a carrier's included-breakdown text.
  - Consecutive rows sharing a department merge into one spanning cell:
    only the first row of a run carries RowSpan and the department
    summary text.

TEXT FORMATS (display strings are part of the contract):
  IncludedText:          "含<name><hours>+<name2><hours2>"
  HoursText:             "<own>+<carried>(含<dept1>,<dept2>)" or "<total>"
  DepartmentSummaryText: "<dept>(<ownSubtotal*wage>+<otherDept><hours*wage>)"
                         Hours carried from the group's own department
                         fold silently into the own subtotal.

SEE ALSO:
  - redistribute.go: Produces the graph this consumes
  - api/dto.go: Wire representation of ReportRow
*/
package payroll

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// UnknownDepartmentName is the display fallback for a department id
// that is missing from the department list.
const UnknownDepartmentName = "未知部门"

// RatingCompetent is the only rating this version of the program emits;
// no rating logic exists upstream, every row is "competent".
const RatingCompetent = "称职"

// =============================================================================
// REPORT TYPES
// =============================================================================

// IncludedSource is one resolved inclusion-ledger entry on a report row.
type IncludedSource struct {
	SourceRecordID RecordID
	Name           string
	DepartmentID   DepartmentID
	DepartmentName string
	Hours          Hours
}

// ReportRow is one line of the final payroll sheet.
type ReportRow struct {
	RecordID  RecordID
	Index     int // 1-based position in the sheet
	Name      string
	College   string
	StudentID string
	JobTitle  string

	DepartmentID   DepartmentID
	DepartmentName string

	// RowSpan is the merged-cell height for the department column.
	// Non-zero only on the first row of a department run; rows covered
	// by a preceding span carry zero.
	RowSpan               int
	DepartmentSummaryText string

	WorkItemsText string

	OwnHours     Hours
	CarriedHours Hours
	TotalHours   Hours
	HoursText    string

	Includes     []IncludedSource
	IncludedText string

	Rating    string
	OwnWage   decimal.Decimal
	TotalWage decimal.Decimal
}

// ReportTotals is the period summary line under the sheet.
type ReportTotals struct {
	Rows      int
	Excellent int // placeholder, always zero in this version
	Competent int
	TotalWage decimal.Decimal
}

// Report is the aggregator output.
type Report struct {
	Rows   []ReportRow
	Totals ReportTotals
}

// =============================================================================
// BUILD REPORT
// =============================================================================

// BuildReport aggregates a saved working set into the payroll sheet.
// Read-only over its inputs. Ledger sources are resolved against the
// full record list, so unapproved and ineligible records must still be
// present in records; a dangling source id is a structural error.
func BuildReport(records []DeclarationRecord, departments []Department, c Constants) (*Report, error) {
	deptNames := make(map[DepartmentID]string, len(departments))
	for _, d := range departments {
		deptNames[d.ID] = d.Name
	}
	deptName := func(id DepartmentID) string {
		if name, ok := deptNames[id]; ok {
			return name
		}
		return UnknownDepartmentName
	}

	byID := make(map[RecordID]*DeclarationRecord, len(records))
	for i := range records {
		byID[records[i].ID] = &records[i]
	}

	// Only position holders past finance approval become rows.
	var eligible []*DeclarationRecord
	for i := range records {
		r := &records[i]
		if r.Declarant.HasWorkStudyPosition && r.Status.Approved() {
			eligible = append(eligible, r)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Declarant.DepartmentID < eligible[j].Declarant.DepartmentID
	})

	report := &Report{Totals: ReportTotals{TotalWage: decimal.Zero}}

	for i, r := range eligible {
		row, err := buildRow(r, i, byID, deptName, c)
		if err != nil {
			return nil, err
		}
		report.Rows = append(report.Rows, row)

		report.Totals.Rows++
		report.Totals.Competent++
		report.Totals.TotalWage = report.Totals.TotalWage.Add(row.TotalWage)
	}

	applyDepartmentGroups(report.Rows, c)

	return report, nil
}

func buildRow(r *DeclarationRecord, i int, byID map[RecordID]*DeclarationRecord, deptName func(DepartmentID) string, c Constants) (ReportRow, error) {
	var (
		includes    []IncludedSource
		carried     = ZeroHours()
		breakdown   strings.Builder
		deptListing []string
		deptSeen    = map[string]bool{}
	)

	for _, in := range r.Includes {
		source, ok := byID[in.SourceRecordID]
		if !ok {
			return ReportRow{}, &RecordValidationError{
				RecordID: r.ID,
				Field:    fmt.Sprintf("includes[%d]", in.SourceRecordID),
				Err:      ErrUnknownSourceRecord,
			}
		}
		name := source.Declarant.Name
		dept := deptName(source.Declarant.DepartmentID)

		if breakdown.Len() > 0 {
			breakdown.WriteString("+")
		}
		breakdown.WriteString(name)
		breakdown.WriteString(in.Hours.String())

		carried = carried.Add(in.Hours)
		if !deptSeen[dept] {
			deptSeen[dept] = true
			deptListing = append(deptListing, dept)
		}

		includes = append(includes, IncludedSource{
			SourceRecordID: in.SourceRecordID,
			Name:           name,
			DepartmentID:   source.Declarant.DepartmentID,
			DepartmentName: dept,
			Hours:          in.Hours,
		})
	}

	own := r.OwnHours()
	total := own.Add(carried)

	includedText := ""
	if breakdown.Len() > 0 {
		includedText = "含" + breakdown.String()
	}

	hoursText := own.String()
	if len(includes) > 0 {
		hoursText = fmt.Sprintf("%s+%s(含%s)", own, carried, strings.Join(deptListing, ","))
	}

	var workItems strings.Builder
	for n, item := range r.WorkItems {
		if n > 0 {
			workItems.WriteString("\n")
		}
		fmt.Fprintf(&workItems, "%d.%s %s", n+1, item.Description, item.Hours)
	}

	return ReportRow{
		RecordID:       r.ID,
		Index:          i + 1,
		Name:           r.Declarant.Name,
		College:        r.Declarant.College,
		StudentID:      r.Declarant.StudentID,
		JobTitle:       r.Declarant.JobTitle,
		DepartmentID:   r.Declarant.DepartmentID,
		DepartmentName: deptName(r.Declarant.DepartmentID),
		WorkItemsText:  workItems.String(),
		OwnHours:       own,
		CarriedHours:   carried,
		TotalHours:     total,
		HoursText:      hoursText,
		Includes:       includes,
		IncludedText:   includedText,
		Rating:         RatingCompetent,
		OwnWage:        c.Wage(own),
		TotalWage:      c.Wage(total),
	}, nil
}

// =============================================================================
// DEPARTMENT GROUPING - Row spans and the merged summary cell
// =============================================================================

// applyDepartmentGroups walks the sorted rows, assigns RowSpan to the
// first row of each consecutive department run, and renders that row's
// department summary text.
func applyDepartmentGroups(rows []ReportRow, c Constants) {
	for start := 0; start < len(rows); {
		end := start + 1
		for end < len(rows) && rows[end].DepartmentID == rows[start].DepartmentID {
			end++
		}

		rows[start].RowSpan = end - start
		rows[start].DepartmentSummaryText = departmentSummary(rows[start:end], c)

		start = end
	}
}

// departmentSummary combines a run's own hours with any included hours
// that originate from a different department. Same-department included
// hours fold into the own subtotal instead of being listed.
func departmentSummary(group []ReportRow, c Constants) string {
	groupName := group[0].DepartmentName

	ownSubtotal := ZeroHours()
	var otherDepts []string
	otherHours := map[string]Hours{}

	for i := range group {
		ownSubtotal = ownSubtotal.Add(group[i].OwnHours)
		for _, in := range group[i].Includes {
			if in.DepartmentName == groupName {
				ownSubtotal = ownSubtotal.Add(in.Hours)
				continue
			}
			if _, ok := otherHours[in.DepartmentName]; !ok {
				otherDepts = append(otherDepts, in.DepartmentName)
			}
			otherHours[in.DepartmentName] = otherHours[in.DepartmentName].Add(in.Hours)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s", groupName, c.Wage(ownSubtotal))
	for _, dept := range otherDepts {
		fmt.Fprintf(&b, "+%s%s", dept, c.Wage(otherHours[dept]))
	}
	b.WriteString(")")
	return b.String()
}
