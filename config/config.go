// Package config assembles the scanner configuration: compiled-in
// defaults, an optional YAML overlay for strategy tuning, and environment
// variables for infrastructure endpoints and credentials.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"odte-scanner/internal/backtest"
	"odte-scanner/internal/model"
	"odte-scanner/internal/pattern"
)

// Config holds the full application configuration.
type Config struct {
	// Instrument and data window.
	Ticker      string `yaml:"ticker"`
	HistoryDays int    `yaml:"history_days"`

	// Detector thresholds and simulation parameters.
	Patterns pattern.Params  `yaml:"patterns"`
	Backtest backtest.Config `yaml:"backtest"`

	// Subset of pattern tags to scan; empty means all.
	EnabledPatterns []string `yaml:"enabled_patterns"`

	// Alerting.
	AlertCooldownSec   int     `yaml:"alert_cooldown_sec"`
	AlertMinConfidence float64 `yaml:"alert_min_confidence"`

	// Infrastructure, environment only.
	RedisAddr     string `yaml:"-"`
	RedisPassword string `yaml:"-"`
	RedisDB       int    `yaml:"-"`
	SQLitePath    string `yaml:"-"`
	MetricsAddr   string `yaml:"-"`
	WebhookURL    string `yaml:"-"`
	TelegramToken string `yaml:"-"`
	TelegramChat  string `yaml:"-"`

	// Broker data feed credentials, environment only.
	BrokerBaseURL    string `yaml:"-"`
	BrokerAPIKey     string `yaml:"-"`
	BrokerClientCode string `yaml:"-"`
	BrokerPassword   string `yaml:"-"`
	BrokerTOTPSecret string `yaml:"-"`
}

// Default returns the compiled-in configuration: SPY 5-minute bars and
// the standard detector thresholds.
func Default() *Config {
	return &Config{
		Ticker:             "SPY",
		HistoryDays:        30,
		Patterns:           pattern.DefaultParams(),
		Backtest:           backtest.DefaultConfig(),
		AlertCooldownSec:   300,
		AlertMinConfidence: 0.6,
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// non-empty), then environment variables for infrastructure.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.SQLitePath = getEnv("SQLITE_PATH", "data/bars.db")
	cfg.MetricsAddr = getEnv("METRICS_ADDR", ":9090")
	cfg.WebhookURL = getEnv("WEBHOOK_URL", "")
	cfg.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.TelegramChat = getEnv("TELEGRAM_CHAT_ID", "")

	cfg.BrokerBaseURL = getEnv("BROKER_BASE_URL", "")
	cfg.BrokerAPIKey = getEnv("BROKER_API_KEY", "")
	cfg.BrokerClientCode = getEnv("BROKER_CLIENT_CODE", "")
	cfg.BrokerPassword = getEnv("BROKER_PASSWORD", "")
	cfg.BrokerTOTPSecret = getEnv("BROKER_TOTP_SECRET", "")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequireBroker asserts that the live data feed credentials are present.
// Backtests never need them; the live monitor does.
func (c *Config) RequireBroker() {
	for _, kv := range []struct{ key, val string }{
		{"BROKER_BASE_URL", c.BrokerBaseURL},
		{"BROKER_API_KEY", c.BrokerAPIKey},
		{"BROKER_CLIENT_CODE", c.BrokerClientCode},
		{"BROKER_PASSWORD", c.BrokerPassword},
		{"BROKER_TOTP_SECRET", c.BrokerTOTPSecret},
	} {
		if kv.val == "" {
			log.Fatalf("[config] required env var %s not set", kv.key)
		}
	}
}

// EnabledPatternTags maps the configured names onto the closed pattern
// set. Unknown names are logged and dropped; an empty list enables every
// pattern.
func (c *Config) EnabledPatternTags() []model.Pattern {
	if len(c.EnabledPatterns) == 0 {
		return nil
	}
	out := make([]model.Pattern, 0, len(c.EnabledPatterns))
	for _, name := range c.EnabledPatterns {
		p := model.Pattern(name)
		if !p.IsValid() {
			log.Printf("[config] skipping unknown pattern %q", name)
			continue
		}
		out = append(out, p)
	}
	return out
}

// AlertCooldown returns the cooldown as a duration.
func (c *Config) AlertCooldown() time.Duration {
	return time.Duration(c.AlertCooldownSec) * time.Second
}

func (c *Config) validate() error {
	if c.Ticker == "" {
		return fmt.Errorf("config: ticker must not be empty")
	}
	if c.HistoryDays <= 0 {
		return fmt.Errorf("config: history_days must be positive, got %d", c.HistoryDays)
	}
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("config: initial_capital must be positive, got %v", c.Backtest.InitialCapital)
	}
	if c.AlertMinConfidence < 0 || c.AlertMinConfidence > 1 {
		return fmt.Errorf("config: alert_min_confidence must be in [0,1], got %v", c.AlertMinConfidence)
	}
	return nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt is like getEnv for integer values.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid integer for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
