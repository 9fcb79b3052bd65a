package cmd

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/pmezard/go-difflib/difflib"

	"grimm.is/allowsync/internal/syncer"
)

// RunDiff executes a dry pass and prints what would change: unified diffs
// for documents, add/remove lists for collections and sets. Differences
// surface in the exit code so scripts can gate on it.
func RunDiff(args []string) error {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	var targets stringList
	configFile := fs.String("config", "", "Configuration file")
	fs.Var(&targets, "target", "Diff only the named target (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, _, err := loadConfig(*configFile)
	if err != nil {
		return err
	}
	log := setupLogging(cfg, false)

	s, err := syncer.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := s.Run(ctx, syncer.RunOptions{DryRun: true, Targets: targets})
	if err != nil {
		return err
	}

	var differs, failed int
	for _, o := range report.Outcomes {
		switch {
		case o.Err != nil:
			failed++
			Printer.Printf("%s (%s): error: %v\n", o.Target, o.Kind, o.Err)
		case o.Skipped:
			Printer.Printf("%s (%s): skipped: %s\n", o.Target, o.Kind, o.Reason)
		case !o.Changed:
			Printer.Printf("%s (%s): in sync\n", o.Target, o.Kind)
		case o.Kind == "document":
			differs++
			printDocumentDiff(o)
		default:
			differs++
			printListDiff(o)
		}
	}

	switch {
	case failed > 0:
		return fmt.Errorf("%d target(s) failed", failed)
	case differs > 0:
		return fmt.Errorf("%d target(s) differ", differs)
	}

	Printer.Println("No changes detected.")
	return nil
}

func printDocumentDiff(o syncer.Outcome) {
	Printer.Printf("%s (%s): %d region(s) would be rewritten\n", o.Target, o.Kind, o.Regions)

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(o.Old),
		B:        difflib.SplitLines(o.New),
		FromFile: o.Location + " (current)",
		ToFile:   o.Location + " (rewritten)",
		Context:  3,
	}
	text, _ := difflib.GetUnifiedDiffString(diff)
	fmt.Print(text)
}

func printListDiff(o syncer.Outcome) {
	Printer.Printf("%s (%s): +%d -%d\n", o.Target, o.Kind, len(o.Added), len(o.Removed))
	for _, item := range o.Added {
		Printer.Printf("  + %s\n", item)
	}
	for _, item := range o.Removed {
		Printer.Printf("  - %s\n", item)
	}
}
