package itemset

import (
	"fmt"
	"net/netip"
	"strings"
)

// Normalize parses candidate as a bare IP address or CIDR literal and
// returns its canonical string form. CIDR literals are canonicalized to
// their masked network ("10.0.0.7/24" becomes "10.0.0.0/24"). Zoned
// addresses and anything that is not an address or CIDR are rejected.
func Normalize(candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", false
	}
	if strings.Contains(candidate, "/") {
		p, err := netip.ParsePrefix(candidate)
		if err != nil {
			return "", false
		}
		return p.Masked().String(), true
	}
	a, err := netip.ParseAddr(candidate)
	if err != nil || a.Zone() != "" {
		return "", false
	}
	return a.String(), true
}

// FilterCandidates reduces a raw line stream (DNS answers, feed bodies) to
// canonical items. Blank lines and #/; comment lines are skipped, inline
// comments stripped, and everything Normalize rejects is dropped.
func FilterCandidates(lines []string) []string {
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if item, ok := Normalize(fields[0]); ok {
			out = append(out, item)
		}
	}
	return out
}

// DerivePrefix computes the network containing address at the given prefix
// length and returns it as a canonical "network/len" string. The address
// must be IPv6; prefixLength must be within 1..128 or the error wraps
// ErrInvalidPrefixLength.
func DerivePrefix(address string, prefixLength int) (string, error) {
	if prefixLength < 1 || prefixLength > 128 {
		return "", fmt.Errorf("prefix length %d: %w", prefixLength, ErrInvalidPrefixLength)
	}
	a, err := netip.ParseAddr(address)
	if err != nil {
		return "", fmt.Errorf("parse address %q: %w", address, err)
	}
	if a.Zone() != "" || !a.Is6() || a.Is4In6() {
		return "", fmt.Errorf("address %q is not a plain IPv6 address", address)
	}
	p, err := a.Prefix(prefixLength)
	if err != nil {
		return "", fmt.Errorf("derive %s/%d: %w", address, prefixLength, ErrInvalidPrefixLength)
	}
	return p.String(), nil
}
