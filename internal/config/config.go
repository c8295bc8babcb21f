package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all configuration for the dashboard service
type Config struct {
	// Server configuration
	Port        string `env:"PORT,default=8090"`
	Environment string `env:"ENVIRONMENT,default=development"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	// Data sources
	DashboardFile  string        `env:"DASHBOARD_FILE,default=./dashboard.yaml"`
	MetricsURL     string        `env:"METRICS_URL"`
	AnnotationsURL string        `env:"ANNOTATIONS_URL"`
	PollInterval   time.Duration `env:"POLL_INTERVAL,default=10s"`
	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT,default=15s"`
	FetchRetries   int           `env:"FETCH_RETRIES,default=2"`

	// Chart rendering defaults, overridable per widget in the dashboard file
	BucketSize          float64 `env:"BUCKET_SIZE,default=60000"`
	LineMode            string  `env:"LINE_MODE,default=smooth"`
	CollisionDistance   float64 `env:"COLLISION_DISTANCE,default=60"`
	DefaultDisplayValue string  `env:"DEFAULT_DISPLAY_VALUE,default=-"`
	LabelWidth          float64 `env:"LABEL_WIDTH,default=80"`
	MarginTop           float64 `env:"MARGIN_TOP,default=20"`
	MarginRight         float64 `env:"MARGIN_RIGHT,default=20"`
	MarginBottom        float64 `env:"MARGIN_BOTTOM,default=30"`
	MarginLeft          float64 `env:"MARGIN_LEFT,default=50"`

	// Frame storage
	StorageMode    string `env:"STORAGE_MODE,default=local"`
	LocalFramesDir string `env:"LOCAL_FRAMES_DIR,default=./frames"`
	GCSBucket      string `env:"GCS_BUCKET"`

	// Local testing configuration
	MockupMode bool   `env:"MOCKUP_MODE,default=false"`
	MocksDir   string `env:"MOCKS_DIR,default=./internal/mocks/data"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated and range-bound options
func (c *Config) Validate() error {
	switch c.LineMode {
	case "smooth", "dotted":
	default:
		return fmt.Errorf("invalid LINE_MODE %q: must be smooth or dotted", c.LineMode)
	}
	switch c.StorageMode {
	case "local":
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when STORAGE_MODE=gcs")
		}
	default:
		return fmt.Errorf("invalid STORAGE_MODE %q: must be local or gcs", c.StorageMode)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.BucketSize <= 0 {
		return fmt.Errorf("BUCKET_SIZE must be positive, got %v", c.BucketSize)
	}
	if c.CollisionDistance < 0 {
		return fmt.Errorf("COLLISION_DISTANCE must not be negative, got %v", c.CollisionDistance)
	}
	return nil
}
