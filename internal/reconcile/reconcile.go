// Package reconcile computes the minimal batch operations that bring a
// recorded membership in line with a desired set.
package reconcile

import (
	"sort"

	"grimm.is/allowsync/internal/itemset"
)

// Delta is the outcome of comparing desired against recorded membership.
// Add and Remove are disjoint and sorted; both may be empty.
type Delta struct {
	Add    []string
	Remove []string
}

// Empty reports whether the delta carries no work.
func (d Delta) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// Diff returns the items to add (desired but not recorded) and to remove
// (recorded but not desired). Items present in both sets are never touched,
// so applying a delta disturbs only what actually drifted.
func Diff(desired, recorded itemset.Set) Delta {
	var d Delta
	for item := range desired {
		if !recorded.Has(item) {
			d.Add = append(d.Add, item)
		}
	}
	for item := range recorded {
		if !desired.Has(item) {
			d.Remove = append(d.Remove, item)
		}
	}
	sort.Strings(d.Add)
	sort.Strings(d.Remove)
	return d
}
