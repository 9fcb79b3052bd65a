// Package cmd implements the CLI subcommands. Each command is a RunX
// function taking its own flag set; main.go dispatches to them.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"grimm.is/allowsync/internal/config"
	"grimm.is/allowsync/internal/i18n"
	"grimm.is/allowsync/internal/logging"
)

// Printer is the global message printer for the CLI
var Printer = i18n.NewCLIPrinter()

// stringList collects repeated flag values.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// loadConfig reads process settings from the environment, loads the config
// file (the settings default when configFile is empty), applies the env
// overlay and validates. Warnings are printed and do not fail the load.
func loadConfig(configFile string) (*config.Config, *config.Settings, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, nil, err
	}
	if configFile == "" {
		configFile = settings.ConfigFile
	}

	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, nil, err
	}
	settings.Apply(cfg)

	errs := cfg.Validate()
	for _, e := range errs {
		if e.Severity == "warning" {
			Printer.Fprintf(os.Stderr, "Warning: %s: %s\n", e.Field, e.Message)
		}
	}
	if errs.HasErrors() {
		for _, e := range errs {
			if e.Severity != "warning" {
				Printer.Fprintf(os.Stderr, "Error: %s: %s\n", e.Field, e.Message)
			}
		}
		return nil, nil, fmt.Errorf("configuration invalid: %s", configFile)
	}
	return cfg, settings, nil
}

// setupLogging installs the default logger per the config's log block, with
// an optional JSON override from the command line.
func setupLogging(cfg *config.Config, forceJSON bool) *logging.Logger {
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.Log.Level)
	logCfg.JSON = cfg.Log.JSON || forceJSON
	logger := logging.New(logCfg)
	logging.SetDefault(logger)
	return logger
}
