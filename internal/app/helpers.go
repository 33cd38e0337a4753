package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/usfinancemoves/finwire/internal/config"
	"github.com/usfinancemoves/finwire/internal/db"
	"github.com/usfinancemoves/finwire/internal/delivery"
	"github.com/usfinancemoves/finwire/internal/ingest"
	"github.com/usfinancemoves/finwire/internal/logging"
	"github.com/usfinancemoves/finwire/internal/selection"
)

const (
	outputFormatTable = "table"
	outputFormatJSON  = "json"
)

func parseOutputFormat(raw, defaultFormat string) (string, error) {
	format := strings.TrimSpace(strings.ToLower(raw))
	if format == "" {
		format = strings.TrimSpace(strings.ToLower(defaultFormat))
	}
	switch format {
	case outputFormatTable, outputFormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("--format must be table or json")
	}
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// bootstrap loads config, builds the logger, and connects the pool. Every
// command shares this preamble.
func bootstrap(ctx context.Context) (*config.Config, zerolog.Logger, *db.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("initialize logger: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.SeedDefaultSections(ctx); err != nil {
		pool.Close()
		return nil, zerolog.Logger{}, nil, fmt.Errorf("seed sections: %w", err)
	}

	return cfg, logger, pool, nil
}

func loadJSONInput(inline, filePath, name string) (json.RawMessage, error) {
	if strings.TrimSpace(filePath) != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("read %s file: %w", name, err)
		}
		return data, nil
	}
	if strings.TrimSpace(inline) == "" {
		return nil, fmt.Errorf("%s is required", name)
	}
	return json.RawMessage(inline), nil
}

func selectionPolicy(cfg *config.Config) selection.Policy {
	policy := selection.DefaultPolicy()
	policy.FreshWindow = cfg.FreshWindow
	policy.FallbackWindow = cfg.FallbackWindow
	policy.HomepageLimit = cfg.HomepageLimit
	policy.PrioritySource = cfg.PrioritySource
	return policy
}

func newIngestService(cfg *config.Config, logger zerolog.Logger, pool *db.Pool) *ingest.Service {
	guard := ingest.NewRepetitionGuard(pool, cfg.CompanyLookback, nil)
	fanout := delivery.NewFanout(logger, cfg.SiteBaseURL, cfg.RevalidateURL != "", cfg.SocialEnabled)
	return ingest.NewService(pool, logger, guard, fanout, ingest.Options{
		MaxExcerptWords: cfg.MaxExcerptWords,
		EnglishOnly:     cfg.EnglishOnly,
	})
}

func newDeliveryWorker(cfg *config.Config, logger zerolog.Logger, pool *db.Pool) *delivery.Worker {
	var web *delivery.Revalidator
	if cfg.RevalidateURL != "" {
		web = delivery.NewRevalidator(cfg.RevalidateURL, cfg.RevalidateSecret, cfg.RequestTimeout)
	}
	var social *delivery.Poster
	var budget *delivery.Budget
	if cfg.SocialEnabled {
		social = delivery.NewPoster(cfg.SocialAPIURL, cfg.SocialAPIToken, cfg.RequestTimeout)
		budget = delivery.NewBudget(cfg.SocialHourlyBudget, time.Hour)
	}
	return delivery.NewWorker(pool, logger, web, social, budget, delivery.WorkerOptions{
		MaxAttempts:     cfg.DeliveryMaxAttempts,
		BackoffBase:     cfg.DeliveryBackoffBase,
		BackoffCap:      cfg.DeliveryBackoffCap,
		BatchSize:       cfg.DeliveryBatchSize,
		DispatchTimeout: cfg.RequestTimeout,
	})
}
