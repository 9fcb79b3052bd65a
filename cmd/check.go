package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"grimm.is/allowsync/internal/config"
)

// RunCheck validates the configuration file syntax and semantics.
func RunCheck(configFile string, verbose bool) error {
	cfg, settings, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if configFile == "" {
		configFile = settings.ConfigFile
	}

	Printer.Printf("Configuration valid: %s\n", configFile)
	Printer.Printf("Schema Version: %s\n", cfg.SchemaVersion)
	Printer.Printf("Sources: %d\n", len(cfg.Sources))
	Printer.Printf("Targets: %d\n", len(cfg.Targets))
	if cfg.Daemon != nil {
		Printer.Printf("Daemon: %s\n", describeSchedule(cfg.Daemon))
	}
	if cfg.Journal != nil {
		Printer.Printf("Journal: %s (%d day retention)\n", cfg.Journal.Path, cfg.Journal.RetentionDays)
	}
	if cfg.Notifications != nil && cfg.Notifications.Enabled {
		enabled := 0
		for _, ch := range cfg.Notifications.Channels {
			if ch.Enabled {
				enabled++
			}
		}
		Printer.Printf("Notification channels: %d\n", enabled)
	}

	if verbose {
		Printer.Println()
		printConfigSummary(cfg)
	}

	return nil
}

func printConfigSummary(cfg *config.Config) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)

	Printer.Fprintln(w, "SOURCE\tKIND\tORIGIN\tIPV6")
	for _, s := range cfg.Sources {
		origin := s.Domain
		if s.Kind == "feed" {
			origin = s.IPv4URL
			if origin == "" {
				origin = s.IPv6URL
			}
		}
		mode := s.IPv6Mode
		if mode == "" {
			mode = "host"
		}
		if mode == "prefix" {
			mode = fmt.Sprintf("prefix /%d", s.IPv6PrefixLen)
		}
		Printer.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Ref(), s.Kind, origin, mode)
	}
	Printer.Fprintln(w)
	w.Flush()

	Printer.Fprintln(w, "TARGET\tKIND\tSOURCE\tLOCATION")
	for _, t := range cfg.Targets {
		Printer.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Name, t.Kind, t.Source, targetLocation(t))
	}
	w.Flush()
}

func targetLocation(t config.TargetBlock) string {
	switch t.Kind {
	case "document":
		if t.Container != "" {
			return t.Container + ":" + t.Path
		}
		return t.Path
	case "list":
		return t.URL + " (" + t.Collection + ")"
	case "nftset":
		sets := t.SetV4
		if t.SetV6 != "" {
			if sets != "" {
				sets += ","
			}
			sets += t.SetV6
		}
		return t.Table + "/" + sets
	default:
		return "-"
	}
}
