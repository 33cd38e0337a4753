package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/usfinancemoves/finwire/internal/cli"
	"github.com/usfinancemoves/finwire/internal/db"
)

func runDeliveries(args []string) int {
	fs := flag.NewFlagSet("deliveries", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	status := fs.String("status", "", "Filter by status: queued, sent, failed, held (empty for all)")
	limit := fs.Int("limit", 50, "Maximum rows to show")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		return 2
	}
	switch *status {
	case "", db.DeliveryStatusQueued, db.DeliveryStatusSent, db.DeliveryStatusFailed, db.DeliveryStatusHeld:
	default:
		fmt.Fprintf(os.Stderr, "Invalid flags: unknown status %q\n", *status)
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	_, _, pool, err := bootstrap(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Deliveries failed: %v\n", err)
		return 1
	}
	defer pool.Close()

	rows, err := pool.ListDeliveriesByStatus(ctx, *status, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Deliveries failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(rows); err != nil {
			fmt.Fprintf(os.Stderr, "Deliveries failed: %v\n", err)
			return 1
		}
		return 0
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPOST\tCHANNEL\tSTATUS\tATTEMPTS\tNEXT ATTEMPT\tLAST ERROR")
	for _, row := range rows {
		lastError := ""
		if row.LastError != nil {
			lastError = *row.LastError
			if len(lastError) > 60 {
				lastError = lastError[:57] + "..."
			}
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\t%s\t%s\n",
			row.DeliveryID, row.PostID, row.Channel, row.Status, row.Attempts,
			row.NextAttemptAt.UTC().Format(time.RFC3339), lastError)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Deliveries failed: %v\n", err)
		return 1
	}
	return 0
}
