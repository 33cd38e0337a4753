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
	case "ingest":
		return runIngest(args[1:])
	case "ingest-item":
		return runIngestItem(args[1:])
	case "select":
		return runSelect(args[1:])
	case "deliver":
		return runDeliver(args[1:])
	case "deliveries":
		return runDeliveries(args[1:])
	case "summary":
		return runSummary(args[1:])
	case "run":
		return runDaemon(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "finwire CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  finwire <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health       Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  ingest       Fetch all configured feeds and ingest new items")
	fmt.Fprintln(os.Stderr, "  ingest-item  Ingest one candidate from a JSON payload")
	fmt.Fprintln(os.Stderr, "  select       Print the computed site layout")
	fmt.Fprintln(os.Stderr, "  deliver      Run one delivery sweep")
	fmt.Fprintln(os.Stderr, "  deliveries   Inspect the delivery queue")
	fmt.Fprintln(os.Stderr, "  summary      Show post counts per section")
	fmt.Fprintln(os.Stderr, "  run          Run ingest and delivery loops until interrupted")
	fmt.Fprintln(os.Stderr, "  serve        Start the Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"finwire <command> -h\" for command-specific flags.")
}
