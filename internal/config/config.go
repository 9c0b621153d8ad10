// Package config loads bot configuration from a YAML file with environment
// variable overrides. Validation is strict: the process must not start with an
// incomplete catalog or missing credentials.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot credentials and polling settings.
type TelegramConfig struct {
	Token    string  `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminIDs []int64 `yaml:"admin_ids" envconfig:"ADMIN_IDS"`
	// LongPollTimeoutSeconds defines the long polling timeout; 0 -> default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// DatabaseConfig selects the storage driver and its connection settings.
// Driver "sqlite" uses Path; driver "postgres" uses the remaining fields.
type DatabaseConfig struct {
	Driver         string `yaml:"driver" envconfig:"DB_DRIVER"`
	Path           string `yaml:"path" envconfig:"DB_PATH"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level   string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format  string `yaml:"format" envconfig:"LOG_FORMAT"`
	Dir     string `yaml:"dir" envconfig:"LOG_DIR"`
	File    string `yaml:"file" envconfig:"LOG_FILE"`
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig holds the sliding-window throttle settings applied per user.
type RateLimitConfig struct {
	MaxEvents     int `yaml:"max_events" envconfig:"RATE_LIMIT_MAX_EVENTS"`
	WindowSeconds int `yaml:"window_seconds" envconfig:"RATE_LIMIT_WINDOW_SECONDS"`
}

// AdConfig bounds user-supplied ad text. A single pair of bounds is the only
// source of truth for text validation.
type AdConfig struct {
	TextMinLen int `yaml:"text_min_len" envconfig:"AD_TEXT_MIN_LEN"`
	TextMaxLen int `yaml:"text_max_len" envconfig:"AD_TEXT_MAX_LEN"`
}

// Channel describes a publishing channel available for ad placement.
type Channel struct {
	Name            string  `yaml:"name"`
	ExternalID      string  `yaml:"id"`
	URL             string  `yaml:"url"`
	PriceMultiplier float64 `yaml:"price_multiplier"`
}

// PriceTier maps a rental duration label to its price. Tiers are kept as an
// ordered slice because the menu renders them in configuration order.
type PriceTier struct {
	Duration string `yaml:"duration"`
	Amount   int    `yaml:"amount"`
	Discount int    `yaml:"discount"`
	Currency string `yaml:"currency"`
}

// LockConfig points at the instance lock file.
type LockConfig struct {
	Path string `yaml:"path" envconfig:"LOCK_PATH"`
}

// BroadcastConfig paces the admin broadcast job.
type BroadcastConfig struct {
	PerSecond int `yaml:"per_second" envconfig:"BROADCAST_PER_SECOND"`
}

// SentryConfig enables error reporting when a DSN is set.
type SentryConfig struct {
	DSN string `yaml:"dsn" envconfig:"SENTRY_DSN"`
}

// Config aggregates all bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Ad        AdConfig        `yaml:"ad"`
	Channels  []Channel       `yaml:"channels"`
	Tiers     []PriceTier     `yaml:"tiers"`
	Lock      LockConfig      `yaml:"lock"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Sentry    SentryConfig    `yaml:"sentry"`
}

const (
	defaultTextMinLen     = 10
	defaultTextMaxLen     = 500
	defaultRateMaxEvents  = 5
	defaultRateWindowSec  = 10
	defaultLockPath       = "adbot.lock"
	defaultBroadcastRate  = 10
	defaultMaxConnections = 4
)

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required")
	}
	if cfg.Telegram.LongPollTimeoutSeconds < 0 {
		return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
	}

	if len(cfg.Channels) == 0 {
		return fmt.Errorf("at least one channel is required")
	}
	seen := make(map[string]struct{}, len(cfg.Channels))
	for i := range cfg.Channels {
		ch := &cfg.Channels[i]
		if strings.TrimSpace(ch.Name) == "" {
			return fmt.Errorf("channels[%d]: name is required", i)
		}
		if _, dup := seen[ch.Name]; dup {
			return fmt.Errorf("duplicate channel name %q", ch.Name)
		}
		seen[ch.Name] = struct{}{}
		if ch.PriceMultiplier <= 0 {
			ch.PriceMultiplier = 1.0
		}
	}

	if len(cfg.Tiers) == 0 {
		return fmt.Errorf("at least one price tier is required")
	}
	for i := range cfg.Tiers {
		t := &cfg.Tiers[i]
		if strings.TrimSpace(t.Duration) == "" {
			return fmt.Errorf("tiers[%d]: duration is required", i)
		}
		if t.Amount <= 0 {
			return fmt.Errorf("tiers[%d]: amount must be > 0", i)
		}
		if t.Currency == "" {
			t.Currency = "RUB"
		}
	}

	if cfg.Ad.TextMinLen == 0 {
		cfg.Ad.TextMinLen = defaultTextMinLen
	}
	if cfg.Ad.TextMaxLen == 0 {
		cfg.Ad.TextMaxLen = defaultTextMaxLen
	}
	if cfg.Ad.TextMinLen < 1 || cfg.Ad.TextMaxLen < cfg.Ad.TextMinLen {
		return fmt.Errorf("ad text bounds invalid: min=%d max=%d", cfg.Ad.TextMinLen, cfg.Ad.TextMaxLen)
	}

	if cfg.RateLimit.MaxEvents == 0 {
		cfg.RateLimit.MaxEvents = defaultRateMaxEvents
	}
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = defaultRateWindowSec
	}
	if cfg.RateLimit.MaxEvents < 0 || cfg.RateLimit.WindowSeconds < 0 {
		return fmt.Errorf("rate_limit values must be >= 0")
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if driver == "" {
		driver = "sqlite"
	}
	switch driver {
	case "sqlite":
		if strings.TrimSpace(cfg.Database.Path) == "" {
			cfg.Database.Path = "adbot.db"
		}
	case "postgres":
		if strings.TrimSpace(cfg.Database.Host) == "" {
			return fmt.Errorf("database.host is required for the postgres driver")
		}
		if strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.name is required for the postgres driver")
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
	default:
		return fmt.Errorf("invalid database.driver %q; allowed: sqlite, postgres", cfg.Database.Driver)
	}
	cfg.Database.Driver = driver
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = defaultMaxConnections
	}

	if strings.TrimSpace(cfg.Lock.Path) == "" {
		cfg.Lock.Path = defaultLockPath
	}
	if cfg.Broadcast.PerSecond <= 0 {
		cfg.Broadcast.PerSecond = defaultBroadcastRate
	}
	return nil
}

// ChannelByName looks a channel up in the catalog.
func (c *Config) ChannelByName(name string) (Channel, bool) {
	for _, ch := range c.Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return Channel{}, false
}

// TierByDuration looks a price tier up by its duration label.
func (c *Config) TierByDuration(duration string) (PriceTier, bool) {
	for _, t := range c.Tiers {
		if t.Duration == duration {
			return t, true
		}
	}
	return PriceTier{}, false
}

// IsAdmin reports whether the user id is in the configured admin allow-list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Telegram.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
