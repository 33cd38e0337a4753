package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/usfinancemoves/finwire/internal/cli"
)

// runDaemon runs the full pipeline continuously: a feed ingestion loop and a
// delivery sweep loop, stopping cleanly on SIGINT/SIGTERM.
func runDaemon(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	enrich := fs.Int("enrich", 0, "Scrape long-form content for up to N deal-section candidates per pass")

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, pool, err := bootstrap(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Run failed: %v\n", err)
		return 1
	}
	defer pool.Close()

	worker := newDeliveryWorker(cfg, logger, pool)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(cfg.IngestInterval)
		defer ticker.Stop()
		for {
			counts, err := ingestPass(ctx, cfg, logger, pool, *enrich)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				logger.Error().Err(err).Msg("ingest pass failed")
			} else {
				logger.Info().
					Int("fetched", counts.Fetched).
					Int("inserted", counts.Inserted).
					Int("duplicates", counts.Duplicates).
					Int("skipped", counts.Skipped).
					Msg("ingest pass complete")
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	go func() {
		defer wg.Done()
		if err := worker.Run(ctx, cfg.DeliverySweepInterval); err != nil {
			logger.Error().Err(err).Msg("delivery worker stopped")
		}
	}()

	logger.Info().
		Dur("ingest_interval", cfg.IngestInterval).
		Dur("sweep_interval", cfg.DeliverySweepInterval).
		Msg("finwire pipeline running")

	wg.Wait()
	logger.Info().Msg("finwire pipeline stopped")
	return 0
}
