// Package allocation splits an order line's quantity across cost-center projects.
package allocation

import (
	"github.com/shopspring/decimal"
)

// Tolerance is the largest allocation sum difference treated as a match.
var Tolerance = decimal.RequireFromString("0.01")

// Allocation assigns part of a line's quantity to one project.
type Allocation struct {
	ProjectID string          `json:"project_id"`
	Qty       decimal.Decimal `json:"allocated_qty"`
}

// Set is one line's allocations in insertion order.
type Set []Allocation

// Total sums the allocated quantities.
func (s Set) Total() decimal.Decimal {
	total := decimal.Zero
	for _, a := range s {
		total = total.Add(a.Qty)
	}
	return total
}

// Clone copies the set.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	return append(Set(nil), s...)
}

// Duplicates returns project ids that appear more than once, in first-seen order.
func (s Set) Duplicates() []string {
	seen := make(map[string]int, len(s))
	var dups []string
	for _, a := range s {
		seen[a.ProjectID]++
		if seen[a.ProjectID] == 2 {
			dups = append(dups, a.ProjectID)
		}
	}
	return dups
}

// Map holds allocation sets keyed by zero-based line index.
type Map map[int]Set

// Clone copies the map and every set in it.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// RemapAfterRemoval returns a new map for the line list after removing the
// line at removed: its set is dropped and every later set moves down one index.
// m is not modified.
func RemapAfterRemoval(m Map, removed int) Map {
	out := make(Map, len(m))
	for idx, set := range m {
		switch {
		case idx < removed:
			out[idx] = set.Clone()
		case idx > removed:
			out[idx-1] = set.Clone()
		}
	}
	return out
}

// MatchState compares an allocation total with the line quantity.
type MatchState string

const (
	StateMatch MatchState = "MATCH"
	StateOver  MatchState = "OVER"
	StateUnder MatchState = "UNDER"
)

// Summary describes the editor's current allocation total.
type Summary struct {
	Allocated  decimal.Decimal `json:"allocated"`
	Expected   decimal.Decimal `json:"expected"`
	Difference decimal.Decimal `json:"difference"`
	State      MatchState      `json:"state"`
}

// Summarize classifies allocated against expected within Tolerance.
func Summarize(allocated, expected decimal.Decimal) Summary {
	diff := allocated.Sub(expected)
	state := StateMatch
	if diff.Abs().GreaterThan(Tolerance) {
		if diff.IsPositive() {
			state = StateOver
		} else {
			state = StateUnder
		}
	}
	return Summary{Allocated: allocated, Expected: expected, Difference: diff, State: state}
}
