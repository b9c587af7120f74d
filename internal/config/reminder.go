package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// ReminderConfig configures the reminder CLI. Flags override these values.
type ReminderConfig struct {
	APIURL          string        `env:"MEDITRACK_API_URL" envDefault:"http://localhost:5000"`
	TokenFile       string        `env:"MEDITRACK_TOKEN_FILE"`
	Token           string        `env:"MEDITRACK_TOKEN"`
	CheckInterval   time.Duration `env:"MEDITRACK_CHECK_INTERVAL" envDefault:"30s"`
	RefreshInterval time.Duration `env:"MEDITRACK_REFRESH_INTERVAL" envDefault:"5m"`
	PromptTimeout   time.Duration `env:"MEDITRACK_PROMPT_TIMEOUT" envDefault:"5m"`
	RequestTimeout  time.Duration `env:"MEDITRACK_REQUEST_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadReminder parses the reminder CLI environment.
func LoadReminder() (*ReminderConfig, error) {
	cfg := &ReminderConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
