package itemset

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"ipv4 address", "192.0.2.10", "192.0.2.10", true},
		{"ipv4 with spaces", "  192.0.2.10  ", "192.0.2.10", true},
		{"ipv6 address", "2001:db8::1", "2001:db8::1", true},
		{"ipv6 uppercase compressed", "2001:DB8:0:0:0:0:0:1", "2001:db8::1", true},
		{"ipv4 cidr", "10.0.0.0/8", "10.0.0.0/8", true},
		{"ipv4 cidr host bits masked", "10.0.0.7/24", "10.0.0.0/24", true},
		{"ipv6 cidr", "2001:db8::/56", "2001:db8::/56", true},
		{"ipv6 cidr host bits masked", "2001:db8:0:aa::1/64", "2001:db8:0:aa::/64", true},
		{"empty", "", "", false},
		{"free text", "unreachable", "", false},
		{"hostname", "host.example.net", "", false},
		{"ipv4 with port", "192.0.2.10:443", "", false},
		{"ipv4 octet out of range", "256.1.1.1", "", false},
		{"zoned ipv6", "fe80::1%eth0", "", false},
		{"prefix length out of range", "10.0.0.0/33", "", false},
		{"negative prefix", "10.0.0.0/-1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.input)
			if ok != tt.ok {
				t.Fatalf("Normalize(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilterCandidates(t *testing.T) {
	lines := []string{
		"# upstream ranges",
		"",
		"192.0.2.10",
		"; stale entry",
		"2001:db8::/56 inline note",
		"not-an-address",
		"  10.0.0.0/8  ",
	}
	got := FilterCandidates(lines)
	want := []string{"192.0.2.10", "2001:db8::/56", "10.0.0.0/8"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterCandidates = %v, want %v", got, want)
	}
}

func TestDerivePrefix(t *testing.T) {
	tests := []struct {
		name    string
		address string
		length  int
		want    string
	}{
		{"typical delegation", "2001:db8::1", 56, "2001:db8::/56"},
		{"mid hextet boundary", "2001:db8:0:abcd::1", 60, "2001:db8:0:abc0::/60"},
		{"full length", "2001:db8::1", 128, "2001:db8::1/128"},
		{"single bit", "2001:db8::1", 1, "::/1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DerivePrefix(tt.address, tt.length)
			if err != nil {
				t.Fatalf("DerivePrefix(%q, %d) error: %v", tt.address, tt.length, err)
			}
			if got != tt.want {
				t.Errorf("DerivePrefix(%q, %d) = %q, want %q", tt.address, tt.length, got, tt.want)
			}
		})
	}
}

func TestDerivePrefixRejectsBadLength(t *testing.T) {
	for _, length := range []int{0, -1, 129, 1000} {
		_, err := DerivePrefix("2001:db8::1", length)
		if !errors.Is(err, ErrInvalidPrefixLength) {
			t.Errorf("DerivePrefix length %d: got %v, want ErrInvalidPrefixLength", length, err)
		}
	}
}

func TestDerivePrefixRejectsNonIPv6(t *testing.T) {
	for _, addr := range []string{"192.0.2.1", "::ffff:192.0.2.1", "fe80::1%eth0", "garbage", ""} {
		if _, err := DerivePrefix(addr, 56); err == nil {
			t.Errorf("DerivePrefix(%q, 56): expected error, got none", addr)
		}
	}
}
