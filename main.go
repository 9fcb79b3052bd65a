package main

import (
	"flag"
	"os"

	"grimm.is/allowsync/cmd"
	"grimm.is/allowsync/internal/brand"
	"grimm.is/allowsync/internal/i18n"
)

var printer = i18n.NewCLIPrinter()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "sync":
		if err := cmd.RunSync(os.Args[2:]); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "daemon":
		if err := cmd.RunDaemon(os.Args[2:]); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "check":
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		verbose := checkFlags.Bool("verbose", false, "Verbose output")
		checkFlags.BoolVar(verbose, "v", false, "Verbose output (short)")
		checkFlags.Parse(os.Args[2:])

		var configFile string
		if len(checkFlags.Args()) > 0 {
			configFile = checkFlags.Arg(0)
		}
		if err := cmd.RunCheck(configFile, *verbose); err != nil {
			printer.Fprintf(os.Stderr, "Check failed: %v\n", err)
			os.Exit(1)
		}

	case "diff":
		if err := cmd.RunDiff(os.Args[2:]); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "history":
		if err := cmd.RunHistory(os.Args[2:]); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "version":
		printer.Printf("%s version %s\n", brand.Name, brand.Version)
		printer.Printf("Build: %s\n", brand.BuildTime)

	case "help", "-h", "--help":
		printUsage()

	default:
		printer.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printer.Printf(`%s - %s

Usage:
  %s <command> [options]

Commands:
  sync      Run one reconciliation pass
            Options: -config <file>, -dry-run (-n), -target <name>, -json-log
  daemon    Run scheduled passes until terminated
            Options: -config <file>, -json-log
  check     Validate a configuration file
            Options: -verbose (-v)
  diff      Show what a pass would change without applying it
            Options: -config <file>, -target <name>
  history   Query the run journal
            Options: -target <name>, -run <id>, -since <dur>, -n <count>, -changed, -json
  version   Print version information

Examples:
  %s sync -config /etc/allowsync/allowsync.hcl
  %s sync -dry-run -target coredns-acl
  %s daemon
  %s check -v /etc/allowsync/allowsync.hcl
  %s diff
  %s history -since 24h -changed
`,
		brand.Name, brand.Description,
		brand.LowerName,
		brand.LowerName, brand.LowerName, brand.LowerName,
		brand.LowerName, brand.LowerName, brand.LowerName)
}
