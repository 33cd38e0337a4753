package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/usfinancemoves/finwire/internal/cli"
	"github.com/usfinancemoves/finwire/internal/db"
	"github.com/usfinancemoves/finwire/internal/globaltime"
)

func runDeliver(args []string) int {
	fs := flag.NewFlagSet("deliver", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	releaseHeld := fs.Bool("release-held", false, "Requeue held deliveries for enabled channels before sweeping")

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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg, logger, pool, err := bootstrap(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Deliver failed: %v\n", err)
		return 1
	}
	defer pool.Close()

	if *releaseHeld {
		channels := make([]string, 0, 2)
		if cfg.RevalidateURL != "" {
			channels = append(channels, db.ChannelWeb)
		}
		if cfg.SocialEnabled {
			channels = append(channels, db.ChannelSocial)
		}
		if len(channels) == 0 {
			fmt.Fprintln(os.Stderr, "Refusing --release-held while no delivery channel is enabled")
			return 2
		}
		var released int64
		for _, channel := range channels {
			n, err := pool.ReleaseHeldDeliveries(ctx, channel, globaltime.Now())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Deliver failed: %v\n", err)
				return 1
			}
			released += n
		}
		fmt.Printf("released=%d\n", released)
	}

	worker := newDeliveryWorker(cfg, logger, pool)
	result, err := worker.Sweep(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Deliver failed: %v\n", err)
		return 1
	}

	fmt.Printf("claimed=%d sent=%d rescheduled=%d failed=%d deferred=%d\n",
		result.Claimed, result.Sent, result.Rescheduled, result.Failed, result.Deferred)
	return 0
}
