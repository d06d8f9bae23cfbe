// Package reconcile resolves per-admission measurement observations into a wide table.
//
// Observations are accumulated per (admission, item) pair in a Slot, which holds either a
// Single observation or Multiple observations in insertion order. Resolution walks every
// admission and every item observed at least once in the input:
//
//   - An item with no slot marks the admission incomplete.
//   - A Single slot passes through unchanged.
//   - A Multiple slot is merged under the item's Policy. Disagreeing non-empty units
//     produce a DIFFERENT_UNITS conflict before the policy is consulted. The SAME policy
//     produces a POLICY_VIOLATION conflict when parsed values differ.
//
// Only admissions with neither a conflict nor a missing item produce an output row.
//
// # Usage Example
//
//	adms := reconcile.NewAdmissions()
//	adms.Add("1", "226707", reconcile.Observation{Value: "170", Unit: "cm"})
//
//	outcome := reconcile.Resolve(adms, items, []string{"226707"})
//	for _, row := range outcome.Rows {
//	    fmt.Println(row)
//	}
//
// Ordering is deterministic throughout: admissions and items in first-seen order,
// observations in the order they were added.
package reconcile
