package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/usfinancemoves/finwire/internal/cli"
	"github.com/usfinancemoves/finwire/internal/httpapi"
	"github.com/usfinancemoves/finwire/internal/selection"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "0.0.0.0", "Listen host")
	port := fs.Int("port", 8090, "Listen port")

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

	bootstrapCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	cfg, logger, pool, err := bootstrap(bootstrapCtx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Serve failed: %v\n", err)
		return 1
	}
	defer pool.Close()

	cache := selection.NewCache(cfg.SelectionCacheTTL)
	server := httpapi.NewServer(pool, logger, cache, selectionPolicy(cfg), httpapi.Options{
		Host:               *host,
		Port:               *port,
		RevalidateSecret:   cfg.RevalidateSecret,
		SelectionFetchSize: cfg.SelectionFetchSize,
	})

	if err := server.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Serve failed: %v\n", err)
		return 1
	}
	return 0
}
