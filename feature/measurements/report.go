package measurements

import (
	"fmt"
	"io"
	"strings"

	"measurement-extractor/core/reconcile"

	"github.com/goccy/go-json"
)

// ConflictDetail describes one unmergeable (admission, item) pair.
type ConflictDetail struct {
	AdmissionID  string                   `json:"admission_id"`
	Item         reconcile.Item           `json:"item"`
	Reason       reconcile.ConflictReason `json:"reason"`
	Observations []reconcile.Observation  `json:"observations"`
}

// IncompleteDetail describes an admission removed for missing items.
type IncompleteDetail struct {
	AdmissionID  string   `json:"admission_id"`
	MissingItems []string `json:"missing_items"`
}

// Report is the outcome of one extraction run.
type Report struct {
	RunID  string    `json:"run_id,omitempty"`
	Source string    `json:"source"`
	Output string    `json:"output"`
	Object string    `json:"object,omitempty"`
	Stats  ScanStats `json:"stats"`

	ConflictedAdmissions int              `json:"conflicted_admissions"`
	Conflicts            []ConflictDetail `json:"conflicts,omitempty"`

	IncompleteAdmissions int                `json:"incomplete_admissions"`
	Incomplete           []IncompleteDetail `json:"incomplete,omitempty"`

	CompleteAdmissions int      `json:"complete_admissions"`
	PopulatedHeaders   []string `json:"populated_headers"`
}

// BuildReport classifies admissions and drains adms as it goes: conflicted admissions
// are removed first, then incomplete ones that are still present. What remains is the
// set of fully resolved admissions.
func BuildReport(adms *reconcile.Admissions, items *reconcile.Items, outcome *reconcile.Outcome, stats ScanStats) *Report {
	r := &Report{Stats: stats}

	for _, adm := range outcome.Conflicts.IDs() {
		adms.Delete(adm)
		r.ConflictedAdmissions++
		for _, c := range outcome.Conflicts.Get(adm) {
			it, _ := items.Get(c.ItemID)
			r.Conflicts = append(r.Conflicts, ConflictDetail{
				AdmissionID:  adm,
				Item:         it,
				Reason:       c.Reason,
				Observations: c.Observations,
			})
		}
	}

	for _, adm := range outcome.Incomplete.IDs() {
		if !adms.Delete(adm) {
			continue
		}
		r.IncompleteAdmissions++
		r.Incomplete = append(r.Incomplete, IncompleteDetail{
			AdmissionID:  adm,
			MissingItems: outcome.Incomplete.Missing(adm),
		})
	}

	r.CompleteAdmissions = adms.Len()
	r.PopulatedHeaders = make([]string, 0, len(stats.ItemsObserved))
	for _, id := range stats.ItemsObserved {
		if it, ok := items.Get(id); ok {
			r.PopulatedHeaders = append(r.PopulatedHeaders, it.Header)
		}
	}
	return r
}

// Render writes the human readable summary. Conflict details are listed only when
// showConflicts is set.
func (r *Report) Render(w io.Writer, showConflicts bool) error {
	var b strings.Builder

	if r.ConflictedAdmissions > 0 {
		if showConflicts {
			fmt.Fprintf(&b, "%d hadm_ids with conflicts:\n", r.ConflictedAdmissions)
			for _, c := range r.Conflicts {
				fmt.Fprintf(&b, "    %s: hadm_id:%-10s item_id:%-10s %s\n",
					c.Reason.Message(), c.AdmissionID, c.Item.ID, c.Item)
				for _, o := range c.Observations {
					fmt.Fprintf(&b, "        %s\n", o)
				}
			}
			fmt.Fprintf(&b, "Removed %d hadm_ids containing conflicting measurements.\n", r.ConflictedAdmissions)
		} else {
			fmt.Fprintf(&b, "%d hadm_ids with conflicts.\n", r.ConflictedAdmissions)
		}
	}

	if r.IncompleteAdmissions > 0 {
		fmt.Fprintf(&b, "Removed %d hadm_ids missing some measurements.\n", r.IncompleteAdmissions)
	}

	fmt.Fprintf(&b, "Scanned %d records.\n", r.Stats.RecordsScanned)
	fmt.Fprintf(&b, "%d hadms records have all values for: %s\n",
		r.CompleteAdmissions, strings.Join(r.PopulatedHeaders, ", "))

	_, err := io.WriteString(w, b.String())
	return err
}

// WithoutDetails returns a copy of the report without per-admission details.
func (r *Report) WithoutDetails() *Report {
	cp := *r
	cp.Conflicts = nil
	cp.Incomplete = nil
	return &cp
}

// RenderJSON writes the report as indented JSON.
func (r *Report) RenderJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
