package payroll_test

import (
	"errors"
	"testing"

	"github.com/yqwork/payroll-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func testDepartments() []payroll.Department {
	return []payroll.Department{
		{ID: 1, Name: "图书馆"},
		{ID: 2, Name: "信息中心"},
	}
}

func include(r *payroll.DeclarationRecord, sourceID int64, hours float64) {
	r.Includes = append(r.Includes, payroll.IncludeEntry{
		SourceRecordID: payroll.RecordID(sourceID),
		Hours:          payroll.NewHours(hours),
	})
}

// =============================================================================
// ROW CONTENT
// =============================================================================

func TestBuildReport_CarrierRowTexts(t *testing.T) {
	// GIVEN: Two library rows owning 10 and 15 hours, the second also
	//        carrying 5 hours from an IT-center record
	// WHEN:  Building the report
	// THEN:  The carrier row shows "15+5(含信息中心)" and the library
	//        summary cell folds own hours to wage while listing the
	//        cross-department wage separately

	records := []payroll.DeclarationRecord{
		record(1, "张三", 1, true, 10),
		record(2, "李四", 1, true, 15),
		record(3, "王五", 2, false, 5),
	}
	include(&records[1], 3, 5)

	report, err := payroll.BuildReport(records, testDepartments(), testConstants())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	if len(report.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (ineligible source must not get a row)", len(report.Rows))
	}

	carrier := report.Rows[1]
	if carrier.HoursText != "15+5(含信息中心)" {
		t.Errorf("HoursText = %q, want %q", carrier.HoursText, "15+5(含信息中心)")
	}
	if carrier.IncludedText != "含王五5" {
		t.Errorf("IncludedText = %q, want %q", carrier.IncludedText, "含王五5")
	}
	hoursEqual(t, carrier.TotalHours, 20, "carrier total hours")
	if carrier.TotalWage.String() != "300" {
		t.Errorf("TotalWage = %s, want 300", carrier.TotalWage)
	}

	// Own subtotal 25h * 15 = 375; carried IT hours 5h * 15 = 75.
	first := report.Rows[0]
	if first.DepartmentSummaryText != "图书馆(375+信息中心75)" {
		t.Errorf("DepartmentSummaryText = %q, want %q", first.DepartmentSummaryText, "图书馆(375+信息中心75)")
	}
	if first.HoursText != "10" {
		t.Errorf("plain HoursText = %q, want %q", first.HoursText, "10")
	}
	if first.IncludedText != "" {
		t.Errorf("plain IncludedText = %q, want empty", first.IncludedText)
	}
}

func TestBuildReport_SameDepartmentCarryFoldsIntoOwnSubtotal(t *testing.T) {
	// GIVEN: A library carrier holding 8 hours of a library colleague
	//        without a position
	// WHEN:  Building the report
	// THEN:  The summary cell has no cross-department component; the
	//        carried hours fold into the library subtotal

	records := []payroll.DeclarationRecord{
		record(1, "张三", 1, true, 12),
		record(2, "李四", 1, false, 8),
	}
	include(&records[0], 2, 8)

	report, err := payroll.BuildReport(records, testDepartments(), testConstants())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	row := report.Rows[0]
	// (12 own + 8 same-dept carried) * 15 = 300.
	if row.DepartmentSummaryText != "图书馆(300)" {
		t.Errorf("DepartmentSummaryText = %q, want %q", row.DepartmentSummaryText, "图书馆(300)")
	}
	if row.HoursText != "12+8(含图书馆)" {
		t.Errorf("HoursText = %q, want %q", row.HoursText, "12+8(含图书馆)")
	}
}

func TestBuildReport_MultipleIncludesJoinWithPlus(t *testing.T) {
	// GIVEN: A carrier holding hours from two different sources
	// WHEN:  Building the report
	// THEN:  The breakdown joins name+hours pairs with "+" under a
	//        single leading 含

	records := []payroll.DeclarationRecord{
		record(1, "张三", 1, true, 10),
		record(2, "李四", 1, false, 3),
		record(3, "王五", 2, false, 4.5),
	}
	include(&records[0], 2, 3)
	include(&records[0], 3, 4.5)

	report, err := payroll.BuildReport(records, testDepartments(), testConstants())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	row := report.Rows[0]
	if row.IncludedText != "含李四3+王五4.5" {
		t.Errorf("IncludedText = %q, want %q", row.IncludedText, "含李四3+王五4.5")
	}
	if row.HoursText != "10+7.5(含图书馆,信息中心)" {
		t.Errorf("HoursText = %q, want %q", row.HoursText, "10+7.5(含图书馆,信息中心)")
	}
}

func TestBuildReport_WorkItemsTextNumbersLines(t *testing.T) {
	// GIVEN: A record with two work items
	// WHEN:  Building the report
	// THEN:  Items render as numbered lines joined by newline

	r := record(1, "张三", 1, true, 0)
	r.WorkItems = []payroll.WorkItem{
		{Description: "前台值班", Hours: payroll.NewHours(6)},
		{Description: "整理书库", Hours: payroll.NewHours(2.5)},
	}

	report, err := payroll.BuildReport([]payroll.DeclarationRecord{r}, testDepartments(), testConstants())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	want := "1.前台值班 6\n2.整理书库 2.5"
	if report.Rows[0].WorkItemsText != want {
		t.Errorf("WorkItemsText = %q, want %q", report.Rows[0].WorkItemsText, want)
	}
}

// =============================================================================
// FILTERING, ORDERING, ROW SPANS
// =============================================================================

func TestBuildReport_FiltersAndSortsRows(t *testing.T) {
	// GIVEN: Records across two departments, one unapproved, one without
	//        a position, listed in mixed department order
	// WHEN:  Building the report
	// THEN:  Only approved position holders get rows, sorted by
	//        department id, with 1-based indexes and row spans on the
	//        first row of each run

	records := []payroll.DeclarationRecord{
		record(1, "张三", 2, true, 10),
		record(2, "李四", 1, true, 10),
		record(3, "王五", 1, true, 10),
		record(4, "赵六", 1, false, 10),
		record(5, "钱七", 2, true, 10),
	}
	records[4].Status = payroll.StatusDeptApproved

	report, err := payroll.BuildReport(records, testDepartments(), testConstants())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	wantOrder := []payroll.RecordID{2, 3, 1}
	if len(report.Rows) != len(wantOrder) {
		t.Fatalf("rows = %d, want %d", len(report.Rows), len(wantOrder))
	}
	for i, want := range wantOrder {
		if report.Rows[i].RecordID != want {
			t.Errorf("row %d = record %d, want %d", i, report.Rows[i].RecordID, want)
		}
		if report.Rows[i].Index != i+1 {
			t.Errorf("row %d index = %d, want %d", i, report.Rows[i].Index, i+1)
		}
	}

	spans := []int{2, 0, 1}
	for i, want := range spans {
		if report.Rows[i].RowSpan != want {
			t.Errorf("row %d span = %d, want %d", i, report.Rows[i].RowSpan, want)
		}
	}
	if report.Rows[1].DepartmentSummaryText != "" {
		t.Errorf("covered row carries summary text %q", report.Rows[1].DepartmentSummaryText)
	}
}

func TestBuildReport_UnknownDepartmentFallback(t *testing.T) {
	// GIVEN: A record whose department id is missing from the list
	// WHEN:  Building the report
	// THEN:  The fallback name is used everywhere the name appears

	records := []payroll.DeclarationRecord{record(1, "张三", 99, true, 10)}

	report, err := payroll.BuildReport(records, testDepartments(), testConstants())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	row := report.Rows[0]
	if row.DepartmentName != payroll.UnknownDepartmentName {
		t.Errorf("DepartmentName = %q, want %q", row.DepartmentName, payroll.UnknownDepartmentName)
	}
	if row.DepartmentSummaryText != payroll.UnknownDepartmentName+"(150)" {
		t.Errorf("DepartmentSummaryText = %q", row.DepartmentSummaryText)
	}
}

// =============================================================================
// TOTALS AND ERRORS
// =============================================================================

func TestBuildReport_Totals(t *testing.T) {
	// GIVEN: Two eligible rows and one folded-in source
	// WHEN:  Building the report
	// THEN:  Totals count rows as competent and sum the paid wage,
	//        carried hours included

	records := []payroll.DeclarationRecord{
		record(1, "张三", 1, true, 10),
		record(2, "李四", 1, true, 15),
		record(3, "王五", 2, false, 5),
	}
	include(&records[1], 3, 5)

	report, err := payroll.BuildReport(records, testDepartments(), testConstants())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	totals := report.Totals
	if totals.Rows != 2 || totals.Competent != 2 || totals.Excellent != 0 {
		t.Errorf("totals = %+v, want 2 rows, 2 competent, 0 excellent", totals)
	}
	// (10 + 15 + 5) * 15 = 450.
	if totals.TotalWage.String() != "450" {
		t.Errorf("TotalWage = %s, want 450", totals.TotalWage)
	}
	if report.Rows[0].Rating != payroll.RatingCompetent {
		t.Errorf("Rating = %q, want %q", report.Rows[0].Rating, payroll.RatingCompetent)
	}
}

func TestBuildReport_DanglingSourceIsError(t *testing.T) {
	// GIVEN: A ledger entry pointing at a record id absent from the set
	// WHEN:  Building the report
	// THEN:  A validation error wrapping the unknown-source sentinel

	records := []payroll.DeclarationRecord{record(1, "张三", 1, true, 10)}
	include(&records[0], 42, 5)

	_, err := payroll.BuildReport(records, testDepartments(), testConstants())
	if !errors.Is(err, payroll.ErrUnknownSourceRecord) {
		t.Fatalf("err = %v, want ErrUnknownSourceRecord", err)
	}
	if !payroll.IsClientError(err) {
		t.Errorf("dangling source should be a client error")
	}
}
