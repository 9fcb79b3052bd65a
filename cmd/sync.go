package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"grimm.is/allowsync/internal/journal"
	"grimm.is/allowsync/internal/notification"
	"grimm.is/allowsync/internal/syncer"
)

// RunSync executes one reconciliation pass. The exit code reflects the
// pass: a failed target makes it non-zero, skipped targets do not.
func RunSync(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)

	var targets stringList
	configFile := fs.String("config", "", "Configuration file")
	dryRun := fs.Bool("dry-run", false, "Compute and report changes without applying them")
	fs.BoolVar(dryRun, "n", false, "Alias for -dry-run")
	jsonLog := fs.Bool("json-log", false, "Write logs as JSON")
	fs.Var(&targets, "target", "Sync only the named target (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, settings, err := loadConfig(*configFile)
	if err != nil {
		return err
	}
	log := setupLogging(cfg, *jsonLog)

	s, err := syncer.New(cfg, log)
	if err != nil {
		return err
	}

	// A dry pass never records anything, so leave the journal closed too.
	if cfg.Journal != nil && !*dryRun {
		store, err := journal.NewStore(cfg.Journal.Path, cfg.Journal.RetentionDays)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer store.Close()
		s.SetJournal(store)
	}
	if cfg.Notifications != nil {
		s.SetNotifier(notification.NewDispatcher(cfg.Notifications, log))
	}

	// Mutual exclusion with a concurrently running daemon or cron sibling.
	if lockPath := settings.LockPath(cfg); lockPath != "" {
		release, err := acquireLock(lockPath)
		if err != nil {
			return err
		}
		defer release()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := s.Run(ctx, syncer.RunOptions{DryRun: *dryRun, Targets: targets})
	if err != nil {
		return err
	}

	printReport(report)

	if report.Failed() {
		return fmt.Errorf("sync finished with failures")
	}
	return nil
}

func printReport(report *syncer.Report) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	Printer.Fprintln(w, "TARGET\tKIND\tRESULT\tDETAIL")
	for _, o := range report.Outcomes {
		result, detail := outcomeRow(o)
		Printer.Fprintf(w, "%s\t%s\t%s\t%s\n", o.Target, o.Kind, result, detail)
	}
	w.Flush()

	if report.DryRun {
		Printer.Println()
		Printer.Println("Dry run: no changes were applied.")
	}
}

func outcomeRow(o syncer.Outcome) (string, string) {
	switch {
	case o.Err != nil:
		return "failed", o.Err.Error()
	case o.Skipped:
		return "skipped", o.Reason
	case o.Changed && o.Kind == "document":
		return "changed", fmt.Sprintf("%d region(s), %d item(s)", o.Regions, o.Items)
	case o.Changed:
		return "changed", fmt.Sprintf("+%d -%d", len(o.Added), len(o.Removed))
	default:
		return "unchanged", o.Reason
	}
}
