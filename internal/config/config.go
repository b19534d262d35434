package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/benvon/smart-reminders/internal/database"
)

// Config holds application configuration
type Config struct {
	StoreDriver string `envconfig:"STORE_DRIVER" default:"file"`
	StorePath   string `envconfig:"STORE_PATH" default:"data/db.yml"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	Timezone     string        `envconfig:"TIMEZONE" default:"Europe/Brussels"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"60s"`
	RunScheduler bool          `envconfig:"RUN_SCHEDULER" default:"false"`

	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	EnableHSTS  bool   `envconfig:"ENABLE_HSTS" default:"false"`
	RedisURL    string `envconfig:"REDIS_URL"`
	RateLimit   string `envconfig:"RATE_LIMIT" default:"5-S"`

	RabbitMQURL      string        `envconfig:"RABBITMQ_URL"`
	RabbitMQPrefetch int           `envconfig:"RABBITMQ_PREFETCH" default:"1"`
	RetryBackoff     time.Duration `envconfig:"DELIVERY_RETRY_BACKOFF" default:"30s"`
	DLQRetention     time.Duration `envconfig:"DLQ_RETENTION" default:"168h"`
	DLQGCInterval    time.Duration `envconfig:"DLQ_GC_INTERVAL" default:"1h"`

	WebhookURL           string  `envconfig:"WEBHOOK_URL"`
	WebhookRatePerSecond float64 `envconfig:"WEBHOOK_RATE_PER_SECOND" default:"1"`

	DebugMode    bool   `envconfig:"DEBUG_MODE" default:"false"`
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks combinations the struct tags cannot express
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case database.DriverFile:
	case database.DriverBadger, database.DriverSQLite:
		if c.StorePath == "" {
			return fmt.Errorf("STORE_PATH is required for the %s store", c.StoreDriver)
		}
	case database.DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.RabbitMQPrefetch < 1 {
		return fmt.Errorf("RABBITMQ_PREFETCH must be at least 1, got %d", c.RabbitMQPrefetch)
	}
	if c.OTELEnabled && c.OTELEndpoint == "" {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED is set")
	}
	return nil
}

// ValidateServer checks the server can share the store with whoever polls
// it. Badger locks its directory, so with that driver the server must run
// the scheduler itself.
func (c *Config) ValidateServer() error {
	if c.StoreDriver == database.DriverBadger && !c.RunScheduler {
		return fmt.Errorf("the badger store admits one process; set RUN_SCHEDULER=true and do not start the worker")
	}
	return nil
}

// ValidateWorker checks the standalone worker is the only scheduler and can
// open the store next to the server.
func (c *Config) ValidateWorker() error {
	if c.RunScheduler {
		return fmt.Errorf("RUN_SCHEDULER is set, the server already polls reminders")
	}
	if c.StoreDriver == database.DriverBadger {
		return fmt.Errorf("the badger store admits one process; run the scheduler in the server with RUN_SCHEDULER=true")
	}
	return nil
}

// StoreOptions returns the document store selection
func (c *Config) StoreOptions() database.Options {
	return database.Options{
		Driver: c.StoreDriver,
		Path:   c.StorePath,
		URL:    c.DatabaseURL,
	}
}

// QueueEnabled reports whether deliveries go through RabbitMQ
func (c *Config) QueueEnabled() bool {
	return c.RabbitMQURL != ""
}
