// Package brand provides centralized naming constants for the tool.
// Keeping identity in one place makes forking or renaming a one-file change.
package brand

import (
	"os"
	"path/filepath"
	"runtime/debug"
)

const (
	Name            = "Allowsync"
	LowerName       = "allowsync"
	Vendor          = "grimm.is"
	Repository      = "https://grimm.is/allowsync"
	Description     = "Reconciles externally consumed allow-lists with authoritative sources"
	ConfigEnvPrefix = "ALLOWSYNC"

	DefaultConfigDir = "/etc/allowsync"
	DefaultStateDir  = "/var/lib/allowsync"
	DefaultRunDir    = "/var/run"

	BinaryName     = "allowsync"
	ConfigFileName = "allowsync.hcl"
)

// Version is set at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// UserAgent returns an HTTP User-Agent for outbound requests (feed fetches,
// list-backend calls). Falls back to module build info when Version was not
// stamped.
func UserAgent() string {
	v := Version
	if v == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			v = bi.Main.Version
		}
	}
	return Name + "/" + v
}

// DefaultConfigPath returns the config file path, checking env vars first.
// Priority: ALLOWSYNC_CONFIG > ALLOWSYNC_PREFIX/config > DefaultConfigDir
func DefaultConfigPath() string {
	if p := os.Getenv(ConfigEnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	if prefix := os.Getenv(ConfigEnvPrefix + "_PREFIX"); prefix != "" {
		return filepath.Join(prefix, "config", ConfigFileName)
	}
	return filepath.Join(DefaultConfigDir, ConfigFileName)
}

// StateDir returns the state directory, checking env vars first.
// Priority: ALLOWSYNC_STATE_DIR > ALLOWSYNC_PREFIX/state > DefaultStateDir
func StateDir() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_STATE_DIR"); dir != "" {
		return dir
	}
	if prefix := os.Getenv(ConfigEnvPrefix + "_PREFIX"); prefix != "" {
		return filepath.Join(prefix, "state")
	}
	return DefaultStateDir
}

// RunDir returns the runtime directory for lock and PID files.
func RunDir() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_RUN_DIR"); dir != "" {
		return dir
	}
	if prefix := os.Getenv(ConfigEnvPrefix + "_PREFIX"); prefix != "" {
		return filepath.Join(prefix, "run")
	}
	return DefaultRunDir
}
