package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"grimm.is/allowsync/internal/journal"
)

// RunHistory queries the run journal.
func RunHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	configFile := fs.String("config", "", "Configuration file")
	target := fs.String("target", "", "Filter by target name")
	runID := fs.String("run", "", "Filter by run ID")
	since := fs.Duration("since", 0, "Only entries newer than this (e.g. 24h)")
	limit := fs.Int("n", 50, "Number of entries to show")
	onlyChanged := fs.Bool("changed", false, "Only entries that changed something")
	asJSON := fs.Bool("json", false, "Print entries as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, _, err := loadConfig(*configFile)
	if err != nil {
		return err
	}
	if cfg.Journal == nil {
		return fmt.Errorf("no journal block configured")
	}

	store, err := journal.NewStore(cfg.Journal.Path, cfg.Journal.RetentionDays)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	filter := journal.Filter{
		Target:      *target,
		RunID:       *runID,
		OnlyChanged: *onlyChanged,
		Limit:       *limit,
	}
	if *since > 0 {
		filter.Since = time.Now().Add(-*since)
	}

	entries, err := store.Query(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("query journal: %w", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		Printer.Println("No journal entries match.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	Printer.Fprintln(w, "TIME\tRUN\tTARGET\tKIND\tRESULT\tDETAIL")
	for _, e := range entries {
		Printer.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Started.Local().Format("2006-01-02 15:04:05"),
			shortRunID(e.RunID), e.Target, e.Kind, entryResult(e), entryDetail(e))
	}
	w.Flush()
	return nil
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func entryResult(e journal.Entry) string {
	switch {
	case e.Error != "":
		return "failed"
	case e.Changed:
		return "changed"
	default:
		return "unchanged"
	}
}

func entryDetail(e journal.Entry) string {
	if e.Error != "" {
		return e.Error
	}
	if !e.Changed {
		return ""
	}
	if e.Regions > 0 {
		return fmt.Sprintf("%d region(s)", e.Regions)
	}
	return fmt.Sprintf("+%d -%d", len(e.Added), len(e.Removed))
}
