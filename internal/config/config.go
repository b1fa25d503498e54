package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramChannelID   string `env:"TELEGRAM_CHANNEL_ID"`
	TelegramPollTimeout int    `env:"TELEGRAM_POLL_TIMEOUT,default=60"`

	DBDriver          string        `env:"DB_DRIVER,default=sqlite"`
	DBPath            string        `env:"DB_PATH,default=data/bot.db"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	BybitBaseURL    string        `env:"BYBIT_BASE_URL,default=https://api.bybit.com"`
	BybitTimeout    time.Duration `env:"BYBIT_TIMEOUT,default=15s"`
	BybitKlineLimit int           `env:"BYBIT_KLINE_LIMIT,default=200"`
	ProxyURL        string        `env:"PROXY_URL"`

	OpenAIAPIKey   string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL  string        `env:"OPENAI_BASE_URL,default=https://api.openai.com/v1"`
	OpenAIModel    string        `env:"OPENAI_MODEL,default=gpt-4o-mini-2024-08-06"`
	OpenAITimeout  time.Duration `env:"OPENAI_TIMEOUT,default=60s"`
	LiteratureURLs string        `env:"LITERATURE_URLS"`

	SignalCooldownHours       float64 `env:"SIGNAL_COOLDOWN_HOURS,default=6"`
	SignalTolerancePct        float64 `env:"SIGNAL_TOLERANCE_PCT,default=0.5"`
	SignalConfidenceTolerance float64 `env:"SIGNAL_CONFIDENCE_TOLERANCE,default=0.03"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// ConfigurationError is returned for tunables that can never work.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case !finite(c.SignalCooldownHours):
		return &ConfigurationError{Field: "SIGNAL_COOLDOWN_HOURS", Reason: "must be a finite number"}
	case !finite(c.SignalTolerancePct):
		return &ConfigurationError{Field: "SIGNAL_TOLERANCE_PCT", Reason: "must be a finite number"}
	case !finite(c.SignalConfidenceTolerance):
		return &ConfigurationError{Field: "SIGNAL_CONFIDENCE_TOLERANCE", Reason: "must be a finite number"}
	case c.SignalCooldownHours < 0:
		return &ConfigurationError{Field: "SIGNAL_COOLDOWN_HOURS", Reason: "must not be negative"}
	case c.SignalTolerancePct < 0:
		return &ConfigurationError{Field: "SIGNAL_TOLERANCE_PCT", Reason: "must not be negative"}
	case c.SignalConfidenceTolerance < 0 || c.SignalConfidenceTolerance > 1:
		return &ConfigurationError{Field: "SIGNAL_CONFIDENCE_TOLERANCE", Reason: "must be within [0,1]"}
	case c.BybitKlineLimit <= 0 || c.BybitKlineLimit > 1000:
		return &ConfigurationError{Field: "BYBIT_KLINE_LIMIT", Reason: "must be within [1, 1000]"}
	}

	switch c.DBDriver {
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			return &ConfigurationError{Field: "DB_PATH", Reason: "required for sqlite"}
		}
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return &ConfigurationError{Field: "DATABASE_URL", Reason: "required for postgres"}
		}
	default:
		return &ConfigurationError{Field: "DB_DRIVER", Reason: fmt.Sprintf("unsupported driver %q", c.DBDriver)}
	}

	if _, err := c.ChannelID(); err != nil {
		return &ConfigurationError{Field: "TELEGRAM_CHANNEL_ID", Reason: err.Error()}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ChannelID parses the optional publication channel. Zero means no channel.
// A doubled leading dash ("--100123") is a common paste mistake and is repaired.
func (c Config) ChannelID() (int64, error) {
	raw := strings.TrimSpace(c.TelegramChannelID)
	if raw == "" {
		return 0, nil
	}
	if strings.HasPrefix(raw, "--") {
		raw = raw[1:]
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", c.TelegramChannelID)
	}
	return id, nil
}

// PostgresDSN accepts the legacy postgres:// scheme as well as postgresql://.
func (c Config) PostgresDSN() string {
	dsn := strings.TrimSpace(c.DatabaseURL)
	if strings.HasPrefix(dsn, "postgres://") {
		dsn = "postgresql://" + strings.TrimPrefix(dsn, "postgres://")
	}
	return dsn
}
