// Package itemset normalizes allow-list candidates and builds the desired
// set for a sync pass. Items are canonical IP address or CIDR strings; the
// set is the single source of truth handed to every sink.
package itemset

import (
	"errors"
	"sort"
)

var (
	// ErrInvalidPrefixLength is returned when an IPv6 prefix length falls
	// outside 1..128. Callers treat this as fatal for the whole pass.
	ErrInvalidPrefixLength = errors.New("invalid IPv6 prefix length")

	// ErrEmptyDesiredSet is returned when every candidate was rejected. An
	// empty desired set must never reach a sink, where it would read as
	// "remove everything".
	ErrEmptyDesiredSet = errors.New("desired set is empty")
)

// Set is a deduplicated collection of canonical items.
type Set map[string]struct{}

// NewSet builds a Set from canonical items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Add inserts a canonical item.
func (s Set) Add(item string) {
	s[item] = struct{}{}
}

// Has reports membership.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Len returns the number of items.
func (s Set) Len() int {
	return len(s)
}

// Items returns the members in lexicographic order. Every rendered or
// logged form of a set goes through this so output is deterministic.
func (s Set) Items() []string {
	items := make([]string, 0, len(s))
	for it := range s {
		items = append(items, it)
	}
	sort.Strings(items)
	return items
}
