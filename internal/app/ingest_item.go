package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/usfinancemoves/finwire/internal/cli"
	payloadschema "github.com/usfinancemoves/finwire/internal/schema"
)

func runIngestItem(args []string) int {
	fs := flag.NewFlagSet("ingest-item", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	payload := fs.String("payload", "", "Candidate payload JSON")
	payloadFile := fs.String("payload-file", "", "Path to payload JSON file (overrides --payload)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	payloadJSON, err := loadJSONInput(*payload, *payloadFile, "payload")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid payload: %v\n", err)
		return 2
	}

	candidate, err := payloadschema.ValidateCandidatePayload(payloadJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid payload: %v\n", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg, logger, pool, err := bootstrap(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		return 1
	}
	defer pool.Close()

	service := newIngestService(cfg, logger, pool)
	result, err := service.Ingest(ctx, candidate.ToCandidate())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		return 1
	}

	fmt.Printf("decision=%s post_id=%d", result.Decision, result.PostID)
	if result.Reason != "" {
		fmt.Printf(" reason=%q", result.Reason)
	}
	fmt.Println()
	return 0
}
