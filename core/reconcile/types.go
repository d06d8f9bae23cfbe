package reconcile

import (
	"fmt"
	"strings"
)

// Observation is a single reading for an (admission, item) pair.
type Observation struct {
	// Value is the raw numeric field. It may be empty.
	Value string `json:"value"`
	// Unit is the normalized unit of measure.
	Unit string `json:"unit"`
}

func (o Observation) String() string {
	return fmt.Sprintf("(%q, %q)", o.Value, o.Unit)
}

var unitReplacer = strings.NewReplacer(".", "", " ", "")

// NormalizeUnit lower-cases a unit and strips periods and spaces, so "mm Hg" and "mmHg."
// compare equal.
func NormalizeUnit(raw string) string {
	return unitReplacer.Replace(strings.ToLower(raw))
}

// Slot holds the observations recorded for one (admission, item) pair.
// It is either Single or Multiple.
type Slot interface {
	// Observations returns the recorded observations in insertion order.
	Observations() []Observation
	slot()
}

// Single is a slot holding exactly one observation.
type Single struct {
	Observation
}

// Multiple is a slot holding two or more observations in insertion order.
type Multiple []Observation

func (s Single) Observations() []Observation   { return []Observation{s.Observation} }
func (m Multiple) Observations() []Observation { return m }

func (Single) slot()   {}
func (Multiple) slot() {}

// appendSlot adds o to s, promoting a Single to Multiple.
func appendSlot(s Slot, o Observation) Slot {
	switch v := s.(type) {
	case nil:
		return Single{Observation: o}
	case Single:
		return Multiple{v.Observation, o}
	case Multiple:
		return append(v, o)
	default:
		panic(fmt.Sprintf("reconcile: unknown slot type %T", s))
	}
}

// Policy names how multiple observations of one item are collapsed.
type Policy string

const (
	PolicySame   Policy = "same"
	PolicyMean   Policy = "mean"
	PolicyMedian Policy = "median"
	PolicyFirst  Policy = "first"
	PolicyMin    Policy = "min"
	PolicyMax    Policy = "max"
)

// Policies lists every recognized policy.
var Policies = []Policy{PolicySame, PolicyMean, PolicyMedian, PolicyFirst, PolicyMin, PolicyMax}

// ParsePolicy matches a policy name case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Policies {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown merge policy %q", s)
}

// Item describes one measurement to extract.
type Item struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Header string `json:"header"`
	Policy Policy `json:"policy"`
}

func (i Item) String() string {
	return fmt.Sprintf("Item(label=%q, header=%q, policy=%q)", i.Label, i.Header, i.Policy)
}

// Items is an ordered, immutable set of items keyed by ID.
type Items struct {
	list  []Item
	index map[string]int
}

// NewItems builds an item set. IDs and headers must be unique and headers non-empty.
func NewItems(items ...Item) (*Items, error) {
	set := &Items{
		list:  make([]Item, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	headers := make(map[string]string, len(items))

	for _, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("item with empty id")
		}
		if _, dup := set.index[it.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %q", it.ID)
		}
		if it.Header == "" {
			return nil, fmt.Errorf("item %q has an empty header", it.ID)
		}
		if other, dup := headers[it.Header]; dup {
			return nil, fmt.Errorf("items %q and %q share header %q", other, it.ID, it.Header)
		}
		headers[it.Header] = it.ID
		set.index[it.ID] = len(set.list)
		set.list = append(set.list, it)
	}
	return set, nil
}

// Get returns the item with the given ID.
func (s *Items) Get(id string) (Item, bool) {
	i, ok := s.index[id]
	if !ok {
		return Item{}, false
	}
	return s.list[i], true
}

// Has reports whether id is part of the set.
func (s *Items) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// List returns the items in definition order.
func (s *Items) List() []Item {
	out := make([]Item, len(s.list))
	copy(out, s.list)
	return out
}

// IDs returns the item IDs in definition order.
func (s *Items) IDs() []string {
	out := make([]string, len(s.list))
	for i, it := range s.list {
		out[i] = it.ID
	}
	return out
}

// Headers returns the output headers in definition order.
func (s *Items) Headers() []string {
	out := make([]string, len(s.list))
	for i, it := range s.list {
		out[i] = it.Header
	}
	return out
}

// Len returns the number of items.
func (s *Items) Len() int {
	return len(s.list)
}

// Admissions accumulates slots per admission, preserving first-seen admission order.
type Admissions struct {
	order []string
	slots map[string]map[string]Slot
}

// NewAdmissions creates an empty accumulator.
func NewAdmissions() *Admissions {
	return &Admissions{slots: make(map[string]map[string]Slot)}
}

// Add records an observation for (admission, item).
func (a *Admissions) Add(admission, itemID string, o Observation) {
	items, ok := a.slots[admission]
	if !ok {
		items = make(map[string]Slot)
		a.slots[admission] = items
		a.order = append(a.order, admission)
	}
	items[itemID] = appendSlot(items[itemID], o)
}

// Slot returns the slot for (admission, item), if any.
func (a *Admissions) Slot(admission, itemID string) (Slot, bool) {
	s, ok := a.slots[admission][itemID]
	return s, ok
}

// Has reports whether the admission is still present.
func (a *Admissions) Has(admission string) bool {
	_, ok := a.slots[admission]
	return ok
}

// Delete removes an admission. It reports whether the admission was present.
func (a *Admissions) Delete(admission string) bool {
	if _, ok := a.slots[admission]; !ok {
		return false
	}
	delete(a.slots, admission)
	return true
}

// Len returns the number of admissions still present.
func (a *Admissions) Len() int {
	return len(a.slots)
}

// IDs returns the present admissions in first-seen order.
func (a *Admissions) IDs() []string {
	out := make([]string, 0, len(a.slots))
	for _, id := range a.order {
		if _, ok := a.slots[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// ConflictReason classifies why a slot could not be merged.
type ConflictReason string

const (
	ReasonDifferentUnits  ConflictReason = "DIFFERENT_UNITS"
	ReasonPolicyViolation ConflictReason = "POLICY_VIOLATION"
)

// Message returns a human readable description of the reason.
func (r ConflictReason) Message() string {
	switch r {
	case ReasonDifferentUnits:
		return "Different units"
	case ReasonPolicyViolation:
		return `Different values for "same" policy.`
	default:
		return string(r)
	}
}

// Conflict records an unmergeable slot.
type Conflict struct {
	ItemID       string         `json:"item_id"`
	Reason       ConflictReason `json:"reason"`
	Observations []Observation  `json:"observations"`
}

// ConflictReport maps admissions to their conflicts, in detection order.
type ConflictReport struct {
	order []string
	byAdm map[string][]Conflict
}

// NewConflictReport creates an empty report.
func NewConflictReport() *ConflictReport {
	return &ConflictReport{byAdm: make(map[string][]Conflict)}
}

// Add records a conflict for an admission.
func (r *ConflictReport) Add(admission string, c Conflict) {
	if _, ok := r.byAdm[admission]; !ok {
		r.order = append(r.order, admission)
	}
	r.byAdm[admission] = append(r.byAdm[admission], c)
}

// Has reports whether the admission has any conflict.
func (r *ConflictReport) Has(admission string) bool {
	_, ok := r.byAdm[admission]
	return ok
}

// Get returns the conflicts of an admission in detection order.
func (r *ConflictReport) Get(admission string) []Conflict {
	return r.byAdm[admission]
}

// IDs returns conflicted admissions in detection order.
func (r *ConflictReport) IDs() []string {
	return r.order
}

// Len returns the number of conflicted admissions.
func (r *ConflictReport) Len() int {
	return len(r.order)
}

// IncompleteReport maps admissions to the requested items they lack.
type IncompleteReport struct {
	order   []string
	missing map[string][]string
}

// NewIncompleteReport creates an empty report.
func NewIncompleteReport() *IncompleteReport {
	return &IncompleteReport{missing: make(map[string][]string)}
}

// Add records a missing item for an admission.
func (r *IncompleteReport) Add(admission, itemID string) {
	if _, ok := r.missing[admission]; !ok {
		r.order = append(r.order, admission)
	}
	r.missing[admission] = append(r.missing[admission], itemID)
}

// Has reports whether the admission lacks any item.
func (r *IncompleteReport) Has(admission string) bool {
	_, ok := r.missing[admission]
	return ok
}

// Missing returns the missing item IDs of an admission in definition order.
func (r *IncompleteReport) Missing(admission string) []string {
	return r.missing[admission]
}

// IDs returns incomplete admissions in detection order.
func (r *IncompleteReport) IDs() []string {
	return r.order
}

// Len returns the number of incomplete admissions.
func (r *IncompleteReport) Len() int {
	return len(r.order)
}
