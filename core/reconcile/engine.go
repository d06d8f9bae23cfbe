package reconcile

// AdmissionColumn is the first column of the output table.
const AdmissionColumn = "HADM_ID"

// UnitsSuffix is appended to an item header to name its unit column.
const UnitsSuffix = "_UNITS"

// Outcome is the result of resolving every admission.
type Outcome struct {
	// Header is the output table header.
	Header []string
	// Rows holds one row per admission with neither conflict nor missing item.
	Rows [][]string
	// Conflicts lists every unmergeable slot.
	Conflicts *ConflictReport
	// Incomplete lists every admission missing a requested item. An admission may also
	// appear in Conflicts.
	Incomplete *IncompleteReport
}

// Header builds the output header for the observed items.
func Header(items *Items, observed []string) []string {
	header := make([]string, 0, 1+2*len(observed))
	header = append(header, AdmissionColumn)
	for _, id := range observed {
		it, ok := items.Get(id)
		if !ok {
			continue
		}
		header = append(header, it.Header, it.Header+UnitsSuffix)
	}
	return header
}

// Resolve walks every admission in first-seen order and every observed item in the order
// it was first seen in the input. Items never observed do not take part: they produce no
// column and do not make admissions incomplete. adms is not modified.
func Resolve(adms *Admissions, items *Items, observed []string) *Outcome {
	out := &Outcome{
		Header:     Header(items, observed),
		Conflicts:  NewConflictReport(),
		Incomplete: NewIncompleteReport(),
	}

	for _, adm := range adms.IDs() {
		resolved := make(map[string]Observation, len(observed))
		clean := true

		for _, id := range observed {
			it, ok := items.Get(id)
			if !ok {
				continue
			}
			slot, ok := adms.Slot(adm, it.ID)
			if !ok {
				out.Incomplete.Add(adm, it.ID)
				clean = false
				continue
			}

			switch s := slot.(type) {
			case Single:
				resolved[it.ID] = s.Observation
			case Multiple:
				merged, conflict := Merge(s, it.Policy)
				if conflict != nil {
					conflict.ItemID = it.ID
					out.Conflicts.Add(adm, *conflict)
					clean = false
					continue
				}
				resolved[it.ID] = merged
			}
		}

		if !clean {
			continue
		}

		row := make([]string, 0, len(out.Header))
		row = append(row, adm)
		for _, id := range observed {
			o, ok := resolved[id]
			if !ok {
				continue
			}
			row = append(row, o.Value, o.Unit)
		}
		out.Rows = append(out.Rows, row)
	}

	return out
}
