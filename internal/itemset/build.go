package itemset

import (
	"fmt"
	"net/netip"
	"strings"
)

// Mode selects how IPv6 candidates enter the desired set.
type Mode string

const (
	// ModeHost keeps IPv6 addresses as host entries.
	ModeHost Mode = "host"
	// ModePrefix replaces each bare IPv6 address with its containing
	// network at a configured prefix length.
	ModePrefix Mode = "prefix"
)

// ParseMode maps a config string to a Mode. Empty defaults to host.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeHost):
		return ModeHost, nil
	case string(ModePrefix):
		return ModePrefix, nil
	}
	return "", fmt.Errorf("unknown ipv6 mode %q (want host or prefix)", s)
}

// IsIPv4 reports whether a canonical item belongs to the IPv4 family.
func IsIPv4(item string) bool {
	if p, err := netip.ParsePrefix(item); err == nil {
		return p.Addr().Is4()
	}
	a, err := netip.ParseAddr(item)
	return err == nil && a.Is4()
}

// IsIPv6 reports whether a canonical item belongs to the IPv6 family.
// IPv4-mapped forms count as neither family and are dropped upstream.
func IsIPv6(item string) bool {
	if p, err := netip.ParsePrefix(item); err == nil {
		return p.Addr().Is6() && !p.Addr().Is4In6()
	}
	a, err := netip.ParseAddr(item)
	return err == nil && a.Is6() && !a.Is4In6()
}

// Build assembles the desired set from per-family candidate lists. IPv4
// candidates are always taken as-is. In ModePrefix, bare IPv6 addresses are
// replaced by their derived network (coinciding prefixes deduplicate);
// explicit IPv6 CIDR literals pass through untouched since their published
// length is authoritative. Candidates of the wrong family or that fail to
// normalize are dropped. An empty result is ErrEmptyDesiredSet.
func Build(ipv4, ipv6 []string, mode Mode, prefixLen int) (Set, error) {
	if mode == ModePrefix && (prefixLen < 1 || prefixLen > 128) {
		return nil, fmt.Errorf("prefix length %d: %w", prefixLen, ErrInvalidPrefixLength)
	}
	set := make(Set)
	for _, c := range ipv4 {
		item, ok := Normalize(c)
		if !ok || !IsIPv4(item) {
			continue
		}
		set.Add(item)
	}
	for _, c := range ipv6 {
		item, ok := Normalize(c)
		if !ok || !IsIPv6(item) {
			continue
		}
		if mode == ModePrefix && !strings.Contains(item, "/") {
			derived, err := DerivePrefix(item, prefixLen)
			if err != nil {
				return nil, err
			}
			item = derived
		}
		set.Add(item)
	}
	if set.Len() == 0 {
		return nil, ErrEmptyDesiredSet
	}
	return set, nil
}
