// Package config loads the API and reminder settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
)

// Metrics backends.
const (
	MetricsPrometheus = "prometheus"
	MetricsMemory     = "memory"
)

// MinJWTSecretLength is the shortest accepted signing secret.
const MinJWTSecretLength = 16

// Config holds all API server configuration.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"5000"`

	// Store
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	// MongoDBURI is accepted in place of DATABASE_URL for the mongo driver.
	MongoDBURI        string        `env:"MONGODB_URI"`
	MongoDatabase     string        `env:"MONGO_DATABASE" envDefault:"meditrack"`
	SQLitePath        string        `env:"SQLITE_PATH" envDefault:"./data/meditrack.db"`
	DBConnectAttempts int           `env:"DB_CONNECT_ATTEMPTS" envDefault:"5"`
	DBConnectDelay    time.Duration `env:"DB_CONNECT_DELAY" envDefault:"1500ms"`

	// Cache (Redis). Empty disables the history cache and rate limiting.
	RedisURL        string        `env:"REDIS_URL"`
	HistoryCacheTTL time.Duration `env:"HISTORY_CACHE_TTL" envDefault:"30s"`

	// Auth
	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"168h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Rate limiting (requires Redis)
	RateLimitEnabled      bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitAuthRPS      int  `env:"RATE_LIMIT_AUTH_RPS" envDefault:"5"`
	RateLimitAuthBurst    int  `env:"RATE_LIMIT_AUTH_BURST" envDefault:"10"`
	RateLimitAPIPerMinute int  `env:"RATE_LIMIT_API_PER_MINUTE" envDefault:"120"`
	RateLimitAPIBurst     int  `env:"RATE_LIMIT_API_BURST" envDefault:"30"`

	// Comma-separated. "*" allows any origin, "*.example.com" its subdomains.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// Observability
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsBackend string `env:"METRICS_BACKEND" envDefault:"prometheus"`
	SentryDSN      string `env:"SENTRY_DSN"`
}

// IsDevelopment relaxes transport hardening such as HSTS.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// CORSOrigins returns the configured origins without blanks.
func (c *Config) CORSOrigins() []string {
	var out []string
	for _, o := range c.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// StoreURL returns the connection string for the configured driver.
func (c *Config) StoreURL() string {
	switch c.StoreDriver {
	case DriverSQLite:
		return c.SQLitePath
	case DriverMongo:
		if c.DatabaseURL == "" {
			return c.MongoDBURI
		}
	}
	return c.DatabaseURL
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverPostgres, DriverMongo:
		if c.StoreURL() == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for store driver %q", c.StoreDriver))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for store driver \"sqlite\""))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be postgres, mongo or sqlite, got %q", c.StoreDriver))
	}

	if len(c.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", MinJWTSecretLength))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.DBConnectAttempts < 1 {
		errs = append(errs, errors.New("DB_CONNECT_ATTEMPTS must be at least 1"))
	}
	if c.AppPort <= 0 || c.AppPort > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT out of range: %d", c.AppPort))
	}
	if c.MetricsBackend != MetricsPrometheus && c.MetricsBackend != MetricsMemory {
		errs = append(errs, fmt.Errorf("METRICS_BACKEND must be prometheus or memory, got %q", c.MetricsBackend))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and validates the result.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
