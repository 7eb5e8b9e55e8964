// Package app wires the monitoreo subcommands. Each command loads its own
// environment, configuration and database pool and returns a process exit
// code.
package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "seed":
		return runSeed(args[1:])
	case "ingest-mentions":
		return runIngestMentions(args[1:])
	case "resolve":
		return runResolve(args[1:])
	case "aggregate":
		return runAggregate(args[1:])
	case "trends":
		return runTrends(args[1:])
	case "weekly":
		return runWeekly(args[1:])
	case "monthly":
		return runMonthly(args[1:])
	case "compare":
		return runCompare(args[1:])
	case "anomalies":
		return runAnomalies(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "monitoreo CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  monitoreo <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health           Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  seed             Load topics, regions and key entities from the keywords file")
	fmt.Fprintln(os.Stderr, "  ingest-mentions  Stage tagged mention documents from JSON files")
	fmt.Fprintln(os.Stderr, "  resolve          Resolve staged mentions into entities and geo classes")
	fmt.Fprintln(os.Stderr, "  aggregate        Compute daily aggregates for one date or a backfill range")
	fmt.Fprintln(os.Stderr, "  trends           Show daily trend windows (global, topics, regions, sources)")
	fmt.Fprintln(os.Stderr, "  weekly           Show ISO-week rollups (global or per topic)")
	fmt.Fprintln(os.Stderr, "  monthly          Show calendar-month rollups")
	fmt.Fprintln(os.Stderr, "  compare          Compare the trailing period with the one before it")
	fmt.Fprintln(os.Stderr, "  anomalies        Flag statistical outlier days")
	fmt.Fprintln(os.Stderr, "  serve            Start the read-only trend API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"monitoreo <command> -h\" for command-specific flags.")
}
