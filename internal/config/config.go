// Package config defines the declarative description of sources and
// targets, loads it from HCL or JSON, and validates it before a pass runs.
// The config is pure data: parsing durations, modes and marker strategies
// into runtime types happens in the packages that consume the blocks.
package config

import "os"

// CurrentSchemaVersion defines the current schema version of the configuration.
const CurrentSchemaVersion = "1.0"

// Config is the top-level structure for a sync configuration.
type Config struct {
	// Schema version for backward compatibility (e.g., "1.0").
	// If empty, defaults to "1.0".
	SchemaVersion string `hcl:"schema_version,optional" json:"schema_version,omitempty"`

	Log           *LogConfig           `hcl:"log,block" json:"log,omitempty"`
	Sources       []SourceBlock        `hcl:"source,block" json:"sources"`
	Targets       []TargetBlock        `hcl:"target,block" json:"targets"`
	Notifications *NotificationsConfig `hcl:"notifications,block" json:"notifications,omitempty"`
	Daemon        *DaemonConfig        `hcl:"daemon,block" json:"daemon,omitempty"`
	Journal       *JournalConfig       `hcl:"journal,block" json:"journal,omitempty"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level string `hcl:"level,optional" json:"level,omitempty"` // debug, info, warn, error
	JSON  bool   `hcl:"json,optional" json:"json,omitempty"`
}

// SourceBlock declares one authoritative source. The kind label selects
// the resolver ("dns" or "feed"); fields outside the kind's section are
// rejected by Validate.
type SourceBlock struct {
	Kind string `hcl:"kind,label" json:"kind"`
	Name string `hcl:"name,label" json:"name"`

	// dns
	Domain string `hcl:"domain,optional" json:"domain,omitempty"`
	Server string `hcl:"server,optional" json:"server,omitempty"` // host or host:port; system resolver when empty

	// feed
	IPv4URL string `hcl:"ipv4_url,optional" json:"ipv4_url,omitempty"`
	IPv6URL string `hcl:"ipv6_url,optional" json:"ipv6_url,omitempty"`

	// shared
	IPv6Mode      string   `hcl:"ipv6_mode,optional" json:"ipv6_mode,omitempty"` // host (default) or prefix
	IPv6PrefixLen int      `hcl:"ipv6_prefix_len,optional" json:"ipv6_prefix_len,omitempty"`
	ExtraIPv4     []string `hcl:"extra_ipv4,optional" json:"extra_ipv4,omitempty"`
	ExtraIPv6     []string `hcl:"extra_ipv6,optional" json:"extra_ipv6,omitempty"`
	Timeout       string   `hcl:"timeout,optional" json:"timeout,omitempty"` // e.g. "30s"
}

// Ref returns the identity targets reference this source by.
func (s SourceBlock) Ref() string {
	return s.Kind + "." + s.Name
}

// TargetBlock declares one externally consumed sink. The kind label selects
// the mechanism ("document", "list" or "nftset").
type TargetBlock struct {
	Kind string `hcl:"kind,label" json:"kind"`
	Name string `hcl:"name,label" json:"name"`

	// Source is the "kind.name" reference of the source feeding this target.
	Source string `hcl:"source" json:"source"`

	// document
	Path          string `hcl:"path,optional" json:"path,omitempty"`
	Marker        string `hcl:"marker,optional" json:"marker,omitempty"`
	FamilyMarkers bool   `hcl:"family_markers,optional" json:"family_markers,omitempty"`
	CommentToken  string `hcl:"comment_token,optional" json:"comment_token,omitempty"` // default "#"
	Indent        string `hcl:"indent,optional" json:"indent,omitempty"`               // fixed (default) or inherit
	VerifyYAML    bool   `hcl:"verify_yaml,optional" json:"verify_yaml,omitempty"`
	Container     string `hcl:"container,optional" json:"container,omitempty"` // document lives inside this container
	Engine        string `hcl:"engine,optional" json:"engine,omitempty"`       // docker (default) or podman
	Restart       bool   `hcl:"restart,optional" json:"restart,omitempty"`    // restart container after a change

	// list
	URL        string `hcl:"url,optional" json:"url,omitempty"`
	Collection string `hcl:"collection,optional" json:"collection,omitempty"`
	Token      string `hcl:"token,optional" json:"token,omitempty"`
	TokenEnv   string `hcl:"token_env,optional" json:"token_env,omitempty"`
	Timeout    string `hcl:"timeout,optional" json:"timeout,omitempty"`

	// nftset
	Table string `hcl:"table,optional" json:"table,omitempty"`
	SetV4 string `hcl:"set_v4,optional" json:"set_v4,omitempty"`
	SetV6 string `hcl:"set_v6,optional" json:"set_v6,omitempty"`
}

// ResolveToken returns the API token for a list target. token_env wins over
// an inline token so secrets can stay out of the config file.
func (t TargetBlock) ResolveToken() string {
	if t.TokenEnv != "" {
		if v := os.Getenv(t.TokenEnv); v != "" {
			return v
		}
	}
	return t.Token
}

// NotificationsConfig configures the notification system.
type NotificationsConfig struct {
	Enabled  bool                  `hcl:"enabled,optional" json:"enabled"`
	Channels []NotificationChannel `hcl:"channel,block" json:"channels"`
}

// NotificationChannel defines a notification destination. Channels are
// opt-in: a channel without enabled = true is never used.
type NotificationChannel struct {
	Name    string `hcl:"name,label" json:"name"`
	Type    string `hcl:"type" json:"type"`            // webhook, slack, discord, ntfy, pushover
	Level   string `hcl:"level,optional" json:"level"` // info (default), warning, critical
	Enabled bool   `hcl:"enabled,optional" json:"enabled"`

	// Webhook/Slack/Discord settings
	WebhookURL string `hcl:"webhook_url,optional" json:"webhook_url,omitempty"`

	// Pushover settings
	APIToken string `hcl:"api_token,optional" json:"api_token,omitempty"`
	UserKey  string `hcl:"user_key,optional" json:"user_key,omitempty"`
	Priority int    `hcl:"priority,optional" json:"priority,omitempty"`
	Sound    string `hcl:"sound,optional" json:"sound,omitempty"`

	// ntfy settings
	Server string `hcl:"server,optional" json:"server,omitempty"`
	Topic  string `hcl:"topic,optional" json:"topic,omitempty"`
	Token  string `hcl:"token,optional" json:"token,omitempty"`

	// Extra headers sent with ntfy requests
	Headers map[string]string `hcl:"headers,optional" json:"headers,omitempty"`
}

// DaemonConfig configures the long-running mode. Exactly one of Interval
// and Cron selects the cadence.
type DaemonConfig struct {
	Interval string `hcl:"interval,optional" json:"interval,omitempty"` // e.g. "15m"
	Cron     string `hcl:"cron,optional" json:"cron,omitempty"`         // 5-field expression
	Listen   string `hcl:"listen,optional" json:"listen,omitempty"`     // health/metrics listener; empty disables
	LockFile string `hcl:"lock_file,optional" json:"lock_file,omitempty"`
}

// JournalConfig configures the run journal.
type JournalConfig struct {
	Path          string `hcl:"path,optional" json:"path,omitempty"`
	RetentionDays int    `hcl:"retention_days,optional" json:"retention_days,omitempty"`
}

// SourceByRef returns the source block with the given "kind.name" reference.
func (c *Config) SourceByRef(ref string) (SourceBlock, bool) {
	for _, s := range c.Sources {
		if s.Ref() == ref {
			return s, true
		}
	}
	return SourceBlock{}, false
}

// TargetByName returns the target block with the given name.
func (c *Config) TargetByName(name string) (TargetBlock, bool) {
	for _, t := range c.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return TargetBlock{}, false
}
