package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// SupportedVersions lists the schema versions this build can load.
var SupportedVersions = []string{"1.0"}

// LoadFile loads a config file. The extension selects the format; unknown
// extensions try HCL first and fall back to JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadBytes(data, path)
}

// LoadBytes loads a config from raw bytes. The filename is used for format
// selection and HCL diagnostics only.
func LoadBytes(data []byte, filename string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hcl":
		return LoadHCL(data, filename)
	case ".json":
		return LoadJSON(data)
	default:
		cfg, err := LoadHCL(data, filename)
		if err != nil {
			if jcfg, jerr := LoadJSON(data); jerr == nil {
				return jcfg, nil
			}
			return nil, err
		}
		return cfg, nil
	}
}

// LoadHCL loads config from HCL bytes.
func LoadHCL(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("HCL parse error: %s", diags.Error())
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("HCL decode error: %s", diags.Error())
	}

	return finishLoad(&cfg)
}

// LoadJSON loads config from JSON bytes.
func LoadJSON(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}
	return finishLoad(&cfg)
}

func finishLoad(cfg *Config) (*Config, error) {
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = CurrentSchemaVersion
	}
	if !isSupportedVersion(cfg.SchemaVersion) {
		return nil, fmt.Errorf("unsupported config schema version %s (supported: %v)",
			cfg.SchemaVersion, SupportedVersions)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func isSupportedVersion(v string) bool {
	for _, s := range SupportedVersions {
		if v == s {
			return true
		}
	}
	return false
}

// applyDefaults fills the fields whose zero value is not the documented
// default. Validation runs after this, so it only ever sees resolved
// values.
func (c *Config) applyDefaults() {
	if c.Log == nil {
		c.Log = &LogConfig{}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	for i := range c.Targets {
		t := &c.Targets[i]
		if t.Kind != "document" {
			continue
		}
		if t.CommentToken == "" {
			t.CommentToken = "#"
		}
		if t.Indent == "" {
			t.Indent = "fixed"
		}
		if t.Container != "" && t.Engine == "" {
			t.Engine = "docker"
		}
	}
	if c.Journal != nil && c.Journal.RetentionDays == 0 {
		c.Journal.RetentionDays = 90
	}
}
