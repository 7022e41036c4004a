/*
validate.go - Input validation and ledger-edit checks

PURPOSE:
  The engine assumes clean input; everything that could make it
  misbehave is rejected here, upstream of it. Two call sites:

  1. ValidateRecords - run on a fetched batch before Redistribute.
     Rejects non-positive work-item hours, missing declarant fields,
     and duplicate record ids.

  2. ValidateLedger - run on a save payload after manual review edits.
     Rejects the edits the drag-and-drop layer could produce: zero-hour
     includes, self-inclusion, the same source twice in one carrier,
     carriers without a position, dangling source ids, and - via
     CheckAcyclic - cycles. The engine never creates a cycle by
     construction, but a manual edit can, so the check runs on the save
     path only.

SEE ALSO:
  - errors.go: Everything returned here
  - redistribute.go: Assumes this has run
*/
package payroll

import "fmt"

// =============================================================================
// BATCH VALIDATION - Before the engine runs
// =============================================================================

// ValidateRecords rejects structurally invalid input. The first problem
// found is returned as a *RecordValidationError.
func ValidateRecords(records []DeclarationRecord) error {
	seen := make(map[RecordID]bool, len(records))
	for i := range records {
		r := &records[i]

		if seen[r.ID] {
			return &RecordValidationError{RecordID: r.ID, Field: "id", Err: ErrDuplicateRecordID}
		}
		seen[r.ID] = true

		if r.Declarant.Name == "" || r.Declarant.DepartmentID <= 0 {
			return &RecordValidationError{RecordID: r.ID, Field: "declarant", Err: ErrMissingDeclarantFields}
		}

		for n, item := range r.WorkItems {
			if !item.Hours.IsPositive() {
				return &RecordValidationError{
					RecordID: r.ID,
					Field:    fmt.Sprintf("workItems[%d].hours", n),
					Err:      ErrNonPositiveHours,
				}
			}
		}
	}
	return nil
}

// =============================================================================
// LEDGER VALIDATION - Before persisting manual edits
// =============================================================================

// ValidateLedger checks the inclusion ledgers of an edited working set
// before they are written back. records must be the full batch so that
// source ids resolve.
func ValidateLedger(records []DeclarationRecord) error {
	byID := make(map[RecordID]*DeclarationRecord, len(records))
	for i := range records {
		byID[records[i].ID] = &records[i]
	}

	for i := range records {
		r := &records[i]
		if len(r.Includes) > 0 && !r.Declarant.HasWorkStudyPosition {
			return &RecordValidationError{RecordID: r.ID, Field: "includes", Err: ErrIneligibleCarrier}
		}

		sources := make(map[RecordID]bool, len(r.Includes))
		for n, in := range r.Includes {
			field := fmt.Sprintf("includes[%d]", n)
			if !in.Hours.IsPositive() {
				return &RecordValidationError{RecordID: r.ID, Field: field, Err: ErrNonPositiveHours}
			}
			if in.SourceRecordID == r.ID {
				return &RecordValidationError{RecordID: r.ID, Field: field, Err: ErrSelfInclusion}
			}
			if sources[in.SourceRecordID] {
				return &RecordValidationError{RecordID: r.ID, Field: field, Err: ErrDuplicateSource}
			}
			sources[in.SourceRecordID] = true
			if _, ok := byID[in.SourceRecordID]; !ok {
				return &RecordValidationError{RecordID: r.ID, Field: field, Err: ErrUnknownSourceRecord}
			}
		}
	}

	return CheckAcyclic(records)
}

// =============================================================================
// CYCLE CHECK - Keep the ledger a DAG
// =============================================================================

// CheckAcyclic walks the include graph (carrier -> source edges) and
// returns a *CycleError if any record's payable chain transitively
// includes itself.
func CheckAcyclic(records []DeclarationRecord) error {
	edges := make(map[RecordID][]RecordID, len(records))
	for i := range records {
		for _, in := range records[i].Includes {
			edges[records[i].ID] = append(edges[records[i].ID], in.SourceRecordID)
		}
	}

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[RecordID]int, len(records))

	var visit func(id RecordID, path []RecordID) *CycleError
	visit = func(id RecordID, path []RecordID) *CycleError {
		state[id] = inStack
		path = append(path, id)
		for _, next := range edges[id] {
			switch state[next] {
			case inStack:
				// Trim the path to the cycle itself.
				start := 0
				for k, p := range path {
					if p == next {
						start = k
						break
					}
				}
				return &CycleError{Path: append(append([]RecordID{}, path[start:]...), next)}
			case unvisited:
				if err := visit(next, path); err != nil {
					return err
				}
			}
		}
		state[id] = done
		return nil
	}

	for i := range records {
		id := records[i].ID
		if state[id] == unvisited {
			if err := visit(id, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
