package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// Valid identifier: alphanumeric, dash, underscore. Used for source,
	// target, collection and nftables set names, all of which end up in
	// commands or API paths.
	identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// Marker names are whitespace-bounded tokens in the marker grammar, so
	// they may carry dots and colons (domain-style names) but never spaces.
	markerNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._:-]+$`)

	// Container names as docker accepts them.
	containerNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

	// Dangerous characters that should never appear in identifiers
	dangerousChars = []string{";", "|", "&", "$", "`", "(", ")", "<", ">", "\\", "\"", "'", "\n", "\r"}
)

// ValidateIdentifier validates a general identifier (source names, target
// names, collection and set names).
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}

	if len(id) > 255 {
		return fmt.Errorf("identifier too long (max 255 characters)")
	}

	if !identifierRegex.MatchString(id) {
		return fmt.Errorf("invalid identifier: %s (must be alphanumeric with -_)", id)
	}

	for _, char := range dangerousChars {
		if strings.Contains(id, char) {
			return fmt.Errorf("identifier contains dangerous character: %s", char)
		}
	}

	return nil
}

// ValidateMarkerName validates the operator-chosen identity of a managed
// region. The marker grammar bounds names at whitespace, so a name with
// spaces could never be matched back.
func ValidateMarkerName(name string) error {
	if name == "" {
		return fmt.Errorf("marker name cannot be empty")
	}

	if len(name) > 255 {
		return fmt.Errorf("marker name too long (max 255 characters)")
	}

	if !markerNameRegex.MatchString(name) {
		return fmt.Errorf("invalid marker name: %s (must be alphanumeric with ._:-)", name)
	}

	return nil
}

// ValidateDocumentPath validates the path of a managed document. Paths are
// operator supplied and must be absolute and free of traversal tricks.
func ValidateDocumentPath(path string) error {
	if path == "" {
		return fmt.Errorf("document path cannot be empty")
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("null byte in path")
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal not allowed: %s", path)
	}

	if !filepath.IsAbs(filepath.Clean(path)) {
		return fmt.Errorf("document path must be absolute: %s", path)
	}

	return nil
}

// ValidateContainerName validates a container name before it is handed to
// docker exec or docker restart.
func ValidateContainerName(name string) error {
	if name == "" {
		return fmt.Errorf("container name cannot be empty")
	}

	if !containerNameRegex.MatchString(name) {
		return fmt.Errorf("invalid container name: %s", name)
	}

	for _, char := range dangerousChars {
		if strings.Contains(name, char) {
			return fmt.Errorf("container name contains dangerous character: %s", char)
		}
	}

	return nil
}

// ValidateDomain validates a DNS name queried by the dns source.
func ValidateDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}

	if len(domain) > 253 {
		return fmt.Errorf("domain too long (max 253 characters)")
	}

	for _, label := range strings.Split(strings.TrimSuffix(domain, "."), ".") {
		if label == "" {
			return fmt.Errorf("domain has empty label: %s", domain)
		}
		if len(label) > 63 {
			return fmt.Errorf("domain label too long: %s", label)
		}
		for _, r := range label {
			if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '-' && r != '_' {
				return fmt.Errorf("invalid character in domain: %s", domain)
			}
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return fmt.Errorf("domain label cannot start or end with dash: %s", label)
		}
	}

	return nil
}

// SanitizeString removes dangerous characters from a string (for display purposes)
func SanitizeString(s string) string {
	for _, char := range dangerousChars {
		s = strings.ReplaceAll(s, char, "")
	}
	return s
}
