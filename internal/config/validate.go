package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"grimm.is/allowsync/internal/itemset"
	"grimm.is/allowsync/internal/validation"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field    string
	Message  string
	Severity string // "error" (default), "warning"
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if any entry is an actual error, not a warning.
func (e ValidationErrors) HasErrors() bool {
	for _, err := range e {
		if err.Severity != "warning" {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	errs = append(errs, c.validateSources()...)
	errs = append(errs, c.validateTargets()...)
	errs = append(errs, c.validateNotifications()...)
	errs = append(errs, c.validateDaemon()...)
	errs = append(errs, c.validateJournal()...)

	return errs
}

func (c *Config) validateSources() ValidationErrors {
	var errs ValidationErrors

	if len(c.Sources) == 0 {
		errs = append(errs, ValidationError{
			Field:   "source",
			Message: "no sources declared; every target needs one",
		})
	}

	seen := make(map[string]bool)
	for i, src := range c.Sources {
		field := fmt.Sprintf("source[%s]", src.Ref())
		if src.Name == "" {
			field = fmt.Sprintf("source[%d]", i)
		}

		if err := validation.ValidateIdentifier(src.Name); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: err.Error()})
		}
		if seen[src.Ref()] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "duplicate source",
			})
		}
		seen[src.Ref()] = true

		switch src.Kind {
		case "dns":
			if src.Domain == "" {
				errs = append(errs, ValidationError{Field: field + ".domain", Message: "domain is required"})
			} else if err := validation.ValidateDomain(src.Domain); err != nil {
				errs = append(errs, ValidationError{Field: field + ".domain", Message: err.Error()})
			}
			if src.Server != "" && !isValidHostPort(src.Server) {
				errs = append(errs, ValidationError{
					Field:   field + ".server",
					Message: fmt.Sprintf("invalid server address: %s", src.Server),
				})
			}
			if src.IPv4URL != "" || src.IPv6URL != "" {
				errs = append(errs, ValidationError{Field: field, Message: "ipv4_url/ipv6_url are feed source settings"})
			}
		case "feed":
			if src.IPv4URL == "" && src.IPv6URL == "" {
				errs = append(errs, ValidationError{Field: field, Message: "at least one of ipv4_url and ipv6_url is required"})
			}
			for name, u := range map[string]string{"ipv4_url": src.IPv4URL, "ipv6_url": src.IPv6URL} {
				if u != "" && !isValidHTTPURL(u) {
					errs = append(errs, ValidationError{
						Field:   field + "." + name,
						Message: fmt.Sprintf("invalid URL: %s", u),
					})
				}
			}
			if src.Domain != "" || src.Server != "" {
				errs = append(errs, ValidationError{Field: field, Message: "domain/server are dns source settings"})
			}
		default:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown source kind %q (want dns or feed)", src.Kind),
			})
		}

		mode, err := itemset.ParseMode(src.IPv6Mode)
		if err != nil {
			errs = append(errs, ValidationError{Field: field + ".ipv6_mode", Message: err.Error()})
		}
		if mode == itemset.ModePrefix && (src.IPv6PrefixLen < 1 || src.IPv6PrefixLen > 128) {
			errs = append(errs, ValidationError{
				Field:   field + ".ipv6_prefix_len",
				Message: fmt.Sprintf("prefix length must be between 1 and 128, got %d", src.IPv6PrefixLen),
			})
		}
		if src.Timeout != "" {
			if _, err := time.ParseDuration(src.Timeout); err != nil {
				errs = append(errs, ValidationError{
					Field:   field + ".timeout",
					Message: fmt.Sprintf("invalid duration: %s", src.Timeout),
				})
			}
		}
		for _, extra := range append(append([]string{}, src.ExtraIPv4...), src.ExtraIPv6...) {
			if _, ok := itemset.Normalize(extra); !ok {
				errs = append(errs, ValidationError{
					Field:    field,
					Message:  fmt.Sprintf("extra entry %q is not an IP or CIDR and will be dropped", extra),
					Severity: "warning",
				})
			}
		}
	}

	return errs
}

func (c *Config) validateTargets() ValidationErrors {
	var errs ValidationErrors

	if len(c.Targets) == 0 {
		errs = append(errs, ValidationError{
			Field:    "target",
			Message:  "no targets declared; a pass will do nothing",
			Severity: "warning",
		})
	}

	seen := make(map[string]bool)
	for i, tgt := range c.Targets {
		field := fmt.Sprintf("target[%s]", tgt.Name)
		if tgt.Name == "" {
			field = fmt.Sprintf("target[%d]", i)
		}

		if err := validation.ValidateIdentifier(tgt.Name); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: err.Error()})
		}
		if seen[tgt.Name] {
			errs = append(errs, ValidationError{Field: field, Message: "duplicate target name"})
		}
		seen[tgt.Name] = true

		if tgt.Source == "" {
			errs = append(errs, ValidationError{Field: field + ".source", Message: "source is required"})
		} else if _, ok := c.SourceByRef(tgt.Source); !ok {
			errs = append(errs, ValidationError{
				Field:   field + ".source",
				Message: fmt.Sprintf("unknown source %q", tgt.Source),
			})
		}

		switch tgt.Kind {
		case "document":
			errs = append(errs, validateDocumentTarget(field, tgt)...)
		case "list":
			errs = append(errs, validateListTarget(field, tgt)...)
		case "nftset":
			errs = append(errs, validateNFTSetTarget(field, tgt)...)
		default:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown target kind %q (want document, list or nftset)", tgt.Kind),
			})
		}
	}

	return errs
}

func validateDocumentTarget(field string, tgt TargetBlock) ValidationErrors {
	var errs ValidationErrors

	if tgt.Path == "" {
		errs = append(errs, ValidationError{Field: field + ".path", Message: "path is required"})
	} else if err := validation.ValidateDocumentPath(tgt.Path); err != nil {
		errs = append(errs, ValidationError{Field: field + ".path", Message: err.Error()})
	}

	if tgt.Marker == "" && !tgt.FamilyMarkers {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: "either marker or family_markers must be set",
		})
	}
	if tgt.Marker != "" && tgt.FamilyMarkers {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: "marker and family_markers are mutually exclusive",
		})
	}
	if tgt.Marker != "" {
		if err := validation.ValidateMarkerName(tgt.Marker); err != nil {
			errs = append(errs, ValidationError{Field: field + ".marker", Message: err.Error()})
		}
	}
	if strings.ContainsAny(tgt.CommentToken, " \t\n") {
		errs = append(errs, ValidationError{
			Field:   field + ".comment_token",
			Message: "comment token must not contain whitespace",
		})
	}
	if tgt.Indent != "fixed" && tgt.Indent != "inherit" {
		errs = append(errs, ValidationError{
			Field:   field + ".indent",
			Message: fmt.Sprintf("unknown indent strategy %q (want fixed or inherit)", tgt.Indent),
		})
	}
	if tgt.Container != "" {
		if err := validation.ValidateContainerName(tgt.Container); err != nil {
			errs = append(errs, ValidationError{Field: field + ".container", Message: err.Error()})
		}
		if tgt.Engine != "docker" && tgt.Engine != "podman" {
			errs = append(errs, ValidationError{
				Field:   field + ".engine",
				Message: fmt.Sprintf("unknown engine %q (want docker or podman)", tgt.Engine),
			})
		}
	}
	if tgt.Restart && tgt.Container == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".restart",
			Message: "restart requires a container",
		})
	}
	if tgt.URL != "" || tgt.Collection != "" || tgt.Table != "" {
		errs = append(errs, ValidationError{Field: field, Message: "url/collection/table are not document settings"})
	}

	return errs
}

func validateListTarget(field string, tgt TargetBlock) ValidationErrors {
	var errs ValidationErrors

	if tgt.URL == "" {
		errs = append(errs, ValidationError{Field: field + ".url", Message: "url is required"})
	} else if !isValidHTTPURL(tgt.URL) {
		errs = append(errs, ValidationError{
			Field:   field + ".url",
			Message: fmt.Sprintf("invalid URL: %s", tgt.URL),
		})
	}
	if tgt.Collection == "" {
		errs = append(errs, ValidationError{Field: field + ".collection", Message: "collection is required"})
	} else if err := validation.ValidateIdentifier(tgt.Collection); err != nil {
		errs = append(errs, ValidationError{Field: field + ".collection", Message: err.Error()})
	}
	if tgt.TokenEnv != "" && strings.ContainsAny(tgt.TokenEnv, "= \t") {
		errs = append(errs, ValidationError{
			Field:   field + ".token_env",
			Message: fmt.Sprintf("invalid environment variable name: %s", tgt.TokenEnv),
		})
	}
	if tgt.Timeout != "" {
		if _, err := time.ParseDuration(tgt.Timeout); err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".timeout",
				Message: fmt.Sprintf("invalid duration: %s", tgt.Timeout),
			})
		}
	}
	if tgt.Path != "" || tgt.Marker != "" || tgt.Table != "" {
		errs = append(errs, ValidationError{Field: field, Message: "path/marker/table are not list settings"})
	}

	return errs
}

func validateNFTSetTarget(field string, tgt TargetBlock) ValidationErrors {
	var errs ValidationErrors

	if tgt.Table == "" {
		errs = append(errs, ValidationError{Field: field + ".table", Message: "table is required"})
	} else if err := validation.ValidateIdentifier(tgt.Table); err != nil {
		errs = append(errs, ValidationError{Field: field + ".table", Message: err.Error()})
	}
	if tgt.SetV4 == "" && tgt.SetV6 == "" {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: "at least one of set_v4 and set_v6 is required",
		})
	}
	for name, set := range map[string]string{"set_v4": tgt.SetV4, "set_v6": tgt.SetV6} {
		if set == "" {
			continue
		}
		if err := validation.ValidateIdentifier(set); err != nil {
			errs = append(errs, ValidationError{Field: field + "." + name, Message: err.Error()})
		}
	}
	if tgt.Path != "" || tgt.Marker != "" || tgt.URL != "" {
		errs = append(errs, ValidationError{Field: field, Message: "path/marker/url are not nftset settings"})
	}

	return errs
}

func (c *Config) validateNotifications() ValidationErrors {
	var errs ValidationErrors
	if c.Notifications == nil {
		return nil
	}

	for i, ch := range c.Notifications.Channels {
		field := fmt.Sprintf("notifications.channel[%s]", ch.Name)
		if ch.Name == "" {
			field = fmt.Sprintf("notifications.channel[%d]", i)
			errs = append(errs, ValidationError{Field: field, Message: "channel name cannot be empty"})
		}

		switch strings.ToLower(ch.Type) {
		case "webhook", "slack", "discord":
			if ch.WebhookURL == "" {
				errs = append(errs, ValidationError{Field: field + ".webhook_url", Message: "webhook_url is required"})
			}
		case "ntfy":
			if ch.Topic == "" {
				errs = append(errs, ValidationError{Field: field + ".topic", Message: "topic is required"})
			}
		case "pushover":
			if ch.APIToken == "" || ch.UserKey == "" {
				errs = append(errs, ValidationError{Field: field, Message: "api_token and user_key are required"})
			}
		case "":
			errs = append(errs, ValidationError{Field: field + ".type", Message: "type is required"})
		default:
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Message: fmt.Sprintf("unknown channel type %q", ch.Type),
			})
		}

		switch ch.Level {
		case "", "info", "warning", "critical":
		default:
			errs = append(errs, ValidationError{
				Field:   field + ".level",
				Message: fmt.Sprintf("unknown level %q (want info, warning or critical)", ch.Level),
			})
		}

		if c.Notifications.Enabled && !ch.Enabled {
			errs = append(errs, ValidationError{
				Field:    field,
				Message:  "channel is configured but not enabled; set enabled = true",
				Severity: "warning",
			})
		}
	}

	return errs
}

func (c *Config) validateDaemon() ValidationErrors {
	var errs ValidationErrors
	if c.Daemon == nil {
		return nil
	}

	if c.Daemon.Interval == "" && c.Daemon.Cron == "" {
		errs = append(errs, ValidationError{
			Field:   "daemon",
			Message: "one of interval and cron is required",
		})
	}
	if c.Daemon.Interval != "" && c.Daemon.Cron != "" {
		errs = append(errs, ValidationError{
			Field:   "daemon",
			Message: "interval and cron are mutually exclusive",
		})
	}
	if c.Daemon.Interval != "" {
		if d, err := time.ParseDuration(c.Daemon.Interval); err != nil {
			errs = append(errs, ValidationError{
				Field:   "daemon.interval",
				Message: fmt.Sprintf("invalid duration: %s", c.Daemon.Interval),
			})
		} else if d < 10*time.Second {
			errs = append(errs, ValidationError{
				Field:    "daemon.interval",
				Message:  fmt.Sprintf("interval %s is shorter than 10s and will hammer the sources", d),
				Severity: "warning",
			})
		}
	}
	if c.Daemon.Cron != "" && len(strings.Fields(c.Daemon.Cron)) != 5 {
		errs = append(errs, ValidationError{
			Field:   "daemon.cron",
			Message: fmt.Sprintf("cron expression must have 5 fields, got %q", c.Daemon.Cron),
		})
	}
	if c.Daemon.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Daemon.Listen); err != nil {
			errs = append(errs, ValidationError{
				Field:   "daemon.listen",
				Message: fmt.Sprintf("invalid listen address: %s", c.Daemon.Listen),
			})
		}
	}
	if c.Daemon.LockFile != "" {
		if err := validation.ValidateDocumentPath(c.Daemon.LockFile); err != nil {
			errs = append(errs, ValidationError{Field: "daemon.lock_file", Message: err.Error()})
		}
	}

	return errs
}

func (c *Config) validateJournal() ValidationErrors {
	var errs ValidationErrors
	if c.Journal == nil {
		return nil
	}

	if c.Journal.Path == "" {
		errs = append(errs, ValidationError{Field: "journal.path", Message: "path is required"})
	} else if err := validation.ValidateDocumentPath(c.Journal.Path); err != nil {
		errs = append(errs, ValidationError{Field: "journal.path", Message: err.Error()})
	}
	if c.Journal.RetentionDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "journal.retention_days",
			Message: fmt.Sprintf("retention must not be negative, got %d", c.Journal.RetentionDays),
		})
	}

	return errs
}

func isValidHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// isValidHostPort accepts a bare host, a host:port pair, or a bracketed
// IPv6 literal with port.
func isValidHostPort(s string) bool {
	if s == "" {
		return false
	}
	if host, port, err := net.SplitHostPort(s); err == nil {
		return host != "" && port != ""
	}
	// Bare host or IP without port.
	return !strings.ContainsAny(s, " \t\n")
}
