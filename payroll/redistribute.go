/*
redistribute.go - Four-pass excess-hour allocation

PURPOSE:
  Given a batch of declarations, some of which exceed, or belong to
  people ineligible for, the payable cap, move the excess hours onto
  other eligible declarants' records without ever exceeding the cap,
  while keeping a fully traceable, reversible mapping of which hours
  moved from whom to whom (the inclusion ledger).

THE FOUR PASSES (fixed order):
  A. Same department, whole amounts only - the first carrier that can
     take the source's entire remaining excess takes all of it.
  B. Same department, splitting allowed - a carrier that cannot take
     everything is filled exactly to cap and the loop continues.
  C. Cross department, whole amounts only - scans the full record list
     with a monotonically advancing cursor so a carrier filled to cap
     is never reconsidered for a later source.
  D. Cross department, splitting allowed - same cursor behavior as C,
     same exact-fill-then-continue behavior as B.

TIE-BREAK:
  First fit in list order. Nothing else. The manual-override workflow
  and the operators' mental model depend on this exact, reproducible
  behavior; do not "improve" it with bin packing or balancing.

FAILURE SEMANTICS:
  Excess that cannot be placed after all four passes is left
  unrepresented by any ledger entry: silently under-allocated, visible
  as a record still over cap. That is an observable outcome, not an
  error. UnplacedExcess lists it for display without changing engine
  behavior.

PRECONDITIONS:
  Input already validated (ValidateRecords) and grouped by department
  (PrepareWorkingSet). The department grouping is load-bearing for the
  within-department passes.

SEE ALSO:
  - types.go: DeclarationRecord, IncludeEntry, Constants
  - report.go: Consumes the redistributed graph
*/
package payroll

import "sort"

// =============================================================================
// WORKING SET PREPARATION
// =============================================================================

// PrepareWorkingSet deep-copies the fetched records, drops everything
// short of finance approval, and sorts by department id (stable, so
// list order within a department is preserved). The result satisfies
// the engine's contiguous-department precondition.
func PrepareWorkingSet(records []DeclarationRecord) []DeclarationRecord {
	var out []DeclarationRecord
	for i := range records {
		if records[i].Status.Approved() {
			out = append(out, records[i].Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Declarant.DepartmentID < out[j].Declarant.DepartmentID
	})
	return out
}

// =============================================================================
// REDISTRIBUTE - Entry point
// =============================================================================

// Redistribute runs the four passes over a deep copy of records and
// returns the copy. Only the Includes field of the returned records
// differs from the input; the caller's slice is never touched.
//
// Redistribute is deterministic, but not idempotent over its own
// output: re-running with different manual tweaks must always start
// from a pristine snapshot.
func Redistribute(records []DeclarationRecord, c Constants) []DeclarationRecord {
	working := CloneRecords(records)

	passSameDepartment(working, c, false)
	passSameDepartment(working, c, true)
	passCrossDepartment(working, c, false)
	passCrossDepartment(working, c, true)

	return working
}

// remainingExcess computes how many of a source's own hours still need
// a carrier: everything already pushed into other ledgers is subtracted,
// and a position holder keeps the cap for itself.
func remainingExcess(records []DeclarationRecord, i int, c Constants) Hours {
	source := &records[i]
	left := source.OwnHours().Sub(OutgoingHours(records, source.ID))
	if source.Declarant.HasWorkStudyPosition {
		left = left.Sub(c.CapHours)
	}
	return left
}

// needsRedistribution reports whether records[i] is a source: either it
// lacks the position entirely, or its own hours exceed the cap.
func needsRedistribution(records []DeclarationRecord, i int, c Constants) bool {
	r := &records[i]
	return !r.Declarant.HasWorkStudyPosition || r.OwnHours().GreaterThan(c.CapHours)
}

// addInclude records "carrier j pays out `hours` of source's own hours".
func addInclude(records []DeclarationRecord, j int, sourceID RecordID, hours Hours) {
	records[j].Includes = append(records[j].Includes, IncludeEntry{
		SourceRecordID: sourceID,
		Hours:          hours,
	})
}

// =============================================================================
// PASSES A/B - Same department
// =============================================================================

// passSameDepartment scans carriers inside the source's own department,
// in list order. With split=false (Pass A) a carrier must take the whole
// remaining excess; with split=true (Pass B) a carrier that cannot is
// filled exactly to cap and the remainder moves on to the next carrier.
func passSameDepartment(records []DeclarationRecord, c Constants, split bool) {
	// Records arrive grouped by department, so the current department is
	// a contiguous run starting at deptStart.
	deptID := DepartmentID(-1)
	deptStart := 0

	for i := range records {
		item := &records[i]
		if item.Declarant.DepartmentID != deptID {
			deptID = item.Declarant.DepartmentID
			deptStart = i
		}

		if !needsRedistribution(records, i, c) {
			continue
		}
		left := remainingExcess(records, i, c)
		if !left.IsPositive() {
			continue
		}

		for j := deptStart; j < len(records); j++ {
			carrier := &records[j]
			if carrier.Declarant.DepartmentID != deptID {
				break // left the department run
			}
			if j == i || !carrier.Declarant.HasWorkStudyPosition {
				continue
			}
			total := carrier.PayableHours()
			if total.GreaterOrEqual(c.CapHours) {
				continue
			}

			if total.Add(left).LessOrEqual(c.CapHours) {
				addInclude(records, j, item.ID, left)
				break
			} else if split {
				take := c.CapHours.Sub(total)
				addInclude(records, j, item.ID, take)
				left = left.Sub(take)
				// The carrier is now exactly at cap; the remainder keeps
				// scanning forward within the department.
			}
		}
	}
}

// =============================================================================
// PASSES C/D - Cross department
// =============================================================================

// passCrossDepartment scans the full record list for carriers. lastJ is
// the carry-forward cursor: once a carrier has been filled exactly to
// cap in this pass, later sources only look forward from there.
func passCrossDepartment(records []DeclarationRecord, c Constants, split bool) {
	lastJ := -1

	for i := range records {
		item := &records[i]

		if !needsRedistribution(records, i, c) {
			continue
		}
		left := remainingExcess(records, i, c)
		if !left.IsPositive() {
			continue
		}

		for j := lastJ + 1; j < len(records); j++ {
			carrier := &records[j]
			if j == i || !carrier.Declarant.HasWorkStudyPosition {
				continue
			}
			total := carrier.PayableHours()
			if total.GreaterOrEqual(c.CapHours) {
				continue
			}

			if total.Add(left).LessOrEqual(c.CapHours) {
				addInclude(records, j, item.ID, left)
				if total.Add(left).Equal(c.CapHours) {
					lastJ = j
				}
				break
			} else if split {
				take := c.CapHours.Sub(total)
				lastJ = j
				addInclude(records, j, item.ID, take)
				left = left.Sub(take)
			}
		}
	}
}

// =============================================================================
// UNPLACED EXCESS - Observable soft-failure reporting
// =============================================================================

// SourceLeftover is a source whose excess could not be fully placed.
// The hours in Unplaced are not represented by any ledger entry and so
// are never paid through anyone.
type SourceLeftover struct {
	RecordID RecordID
	Name     string
	Unplaced Hours
}

// UnplacedExcess lists the under-allocated sources of a redistributed
// set. Purely derived from the observable ledger state: the engine
// itself neither flags nor fixes these.
func UnplacedExcess(records []DeclarationRecord, c Constants) []SourceLeftover {
	var out []SourceLeftover
	for i := range records {
		if !needsRedistribution(records, i, c) {
			continue
		}
		left := remainingExcess(records, i, c)
		if left.IsPositive() {
			out = append(out, SourceLeftover{
				RecordID: records[i].ID,
				Name:     records[i].Declarant.Name,
				Unplaced: left,
			})
		}
	}
	return out
}
