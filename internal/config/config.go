package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"FW_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"FW_DB_MAX_CONNS" default:"8"`

	SiteBaseURL string `envconfig:"SITE_BASE_URL" default:"https://www.usfinancemoves.com"`

	// Web cache-invalidation channel.
	RevalidateURL    string `envconfig:"REVALIDATE_URL" default:""`
	RevalidateSecret string `envconfig:"REVALIDATE_SECRET" default:""`

	// Social posting channel.
	SocialEnabled      bool   `envconfig:"SOCIAL_ENABLED" default:"false"`
	SocialAPIURL       string `envconfig:"SOCIAL_API_URL" default:"https://api.twitter.com/2/tweets"`
	SocialAPIToken     string `envconfig:"SOCIAL_API_TOKEN" default:""`
	SocialHourlyBudget int    `envconfig:"SOCIAL_HOURLY_BUDGET" default:"10"`

	// Delivery worker.
	DeliveryMaxAttempts   int           `envconfig:"DELIVERY_MAX_ATTEMPTS" default:"5"`
	DeliveryBackoffBase   time.Duration `envconfig:"DELIVERY_BACKOFF_BASE" default:"3m"`
	DeliveryBackoffCap    time.Duration `envconfig:"DELIVERY_BACKOFF_CAP" default:"1h"`
	DeliverySweepInterval time.Duration `envconfig:"DELIVERY_SWEEP_INTERVAL" default:"5m"`
	DeliveryBatchSize     int           `envconfig:"DELIVERY_BATCH_SIZE" default:"20"`

	// Ingestion.
	IngestInterval       time.Duration `envconfig:"INGEST_INTERVAL" default:"30m"`
	MaxPostsPerSource    int           `envconfig:"MAX_POSTS_PER_SOURCE" default:"10"`
	RequestTimeout       time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	MaxExcerptWords      int           `envconfig:"MAX_EXCERPT_WORDS" default:"75"`
	CompanyLookback      time.Duration `envconfig:"COMPANY_LOOKBACK" default:"168h"`
	EnglishOnly          bool          `envconfig:"ENGLISH_ONLY" default:"true"`
	FeedFetchConcurrency int           `envconfig:"FEED_FETCH_CONCURRENCY" default:"4"`

	// Selection.
	FreshWindow        time.Duration `envconfig:"SELECT_FRESH_WINDOW" default:"2h"`
	FallbackWindow     time.Duration `envconfig:"SELECT_FALLBACK_WINDOW" default:"168h"`
	HomepageLimit      int           `envconfig:"SELECT_HOMEPAGE_LIMIT" default:"30"`
	PrioritySource     string        `envconfig:"SELECT_PRIORITY_SOURCE" default:"Bloomberg"`
	SelectionCacheTTL  time.Duration `envconfig:"SELECT_CACHE_BUCKET" default:"5m"`
	SelectionFetchSize int           `envconfig:"SELECT_FETCH_SIZE" default:"500"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("FW_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("FW_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("FW_DB_MIN_CONNS (%d) cannot exceed FW_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.SocialEnabled && strings.TrimSpace(c.SocialAPIToken) == "" {
		return fmt.Errorf("SOCIAL_API_TOKEN is required when SOCIAL_ENABLED=true")
	}
	if c.SocialHourlyBudget < 1 {
		return fmt.Errorf("SOCIAL_HOURLY_BUDGET must be >= 1")
	}
	if c.DeliveryMaxAttempts < 1 {
		return fmt.Errorf("DELIVERY_MAX_ATTEMPTS must be >= 1")
	}
	if c.DeliveryBackoffBase <= 0 {
		return fmt.Errorf("DELIVERY_BACKOFF_BASE must be > 0")
	}
	if c.DeliveryBackoffCap < c.DeliveryBackoffBase {
		return fmt.Errorf("DELIVERY_BACKOFF_CAP must be >= DELIVERY_BACKOFF_BASE")
	}
	if c.DeliveryBatchSize < 1 {
		return fmt.Errorf("DELIVERY_BATCH_SIZE must be >= 1")
	}
	if c.MaxExcerptWords < 1 {
		return fmt.Errorf("MAX_EXCERPT_WORDS must be >= 1")
	}
	if c.CompanyLookback < 0 {
		return fmt.Errorf("COMPANY_LOOKBACK must be >= 0")
	}
	if c.FreshWindow <= 0 {
		return fmt.Errorf("SELECT_FRESH_WINDOW must be > 0")
	}
	if c.FallbackWindow < c.FreshWindow {
		return fmt.Errorf("SELECT_FALLBACK_WINDOW must be >= SELECT_FRESH_WINDOW")
	}
	if c.HomepageLimit < 1 {
		return fmt.Errorf("SELECT_HOMEPAGE_LIMIT must be >= 1")
	}
	if c.SelectionCacheTTL <= 0 {
		return fmt.Errorf("SELECT_CACHE_BUCKET must be > 0")
	}
	if c.SelectionFetchSize < 1 {
		return fmt.Errorf("SELECT_FETCH_SIZE must be >= 1")
	}
	return nil
}
