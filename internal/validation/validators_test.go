package validation

import (
	"strings"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Happy paths
		{"simple", "dyn-clients", false},
		{"underscore", "cdn_v4", false},
		{"alphanumeric", "list123", false},

		// Sad paths
		{"empty", "", true},
		{"space", "my list", true},
		{"dot", "my.list", true},
		{"too long", strings.Repeat("a", 256), true},
		{"semicolon injection", "list;rm", true},
		{"pipe injection", "list|cat", true},
		{"dollar sign", "list$USER", true},
		{"backtick", "list`whoami`", true},
		{"quote", "list'", true},
		{"newline", "list\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateMarkerName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Happy paths
		{"domain style", "dyn.example.net", false},
		{"short", "x.test", false},
		{"with colon", "edge:v4", false},
		{"with dash", "x.test-backup", false},

		// Sad paths
		{"empty", "", true},
		{"space", "x test", true},
		{"tab", "x\ttest", true},
		{"newline", "x\ntest", true},
		{"hash", "x#test", true},
		{"too long", strings.Repeat("a", 256), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMarkerName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMarkerName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDocumentPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"absolute", "/srv/proxy/dynamic.yml", false},
		{"nested", "/etc/gateway/conf.d/trusted.yml", false},

		{"empty", "", true},
		{"relative", "conf/dynamic.yml", true},
		{"traversal", "/srv/../etc/shadow", true},
		{"null byte", "/srv/a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDocumentPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateContainerName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "proxy", false},
		{"compose style", "stack_proxy_1", false},
		{"with dots", "proxy.blue", false},

		{"empty", "", true},
		{"leading dash", "-proxy", true},
		{"space", "my proxy", true},
		{"injection", "proxy;reboot", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContainerName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateContainerName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDomain(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "example.net", false},
		{"subdomain", "dyn.example.net", false},
		{"trailing dot", "dyn.example.net.", false},
		{"underscore label", "_acme.example.net", false},

		{"empty", "", true},
		{"empty label", "dyn..example.net", true},
		{"leading dash", "-dyn.example.net", true},
		{"space", "dyn example.net", true},
		{"label too long", strings.Repeat("a", 64) + ".example.net", true},
		{"too long", strings.Repeat("abcdefgh.", 32) + "net", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDomain(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDomain(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	got := SanitizeString("safe;rm -rf|`x`")
	if strings.ContainsAny(got, ";|`") {
		t.Errorf("SanitizeString left dangerous characters: %q", got)
	}
}
