// Package config loads the bridge's settings from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full environment surface of the bridge. API_SECRET and
// DATABASE_URL are hard requirements: the first gates the webhook, the
// second backs the exactly-once ledger.
type Config struct {
	Port      int    `env:"PORT" envDefault:"8080"`
	APISecret string `env:"API_SECRET,required"`

	RconHost     string `env:"RCON_HOST"`
	RconPort     int    `env:"RCON_PORT"`
	RconPassword string `env:"RCON_PASSWORD"`
	DryRun       bool   `env:"DRY_RUN" envDefault:"false"`

	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisAddr   string `env:"REDIS_ADDR"`

	DiscordWebhookURL string `env:"DISCORD_WEBHOOK_URL"`

	// TestAmount is the processor's fixed test-charge amount.
	TestAmount string `env:"TEST_AMOUNT" envDefault:"1.00"`

	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"60s"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// RconConfigured reports whether a full console target is present.
func (c Config) RconConfigured() bool {
	return c.RconHost != "" && c.RconPort != 0 && c.RconPassword != ""
}
