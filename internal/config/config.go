package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider    string        `yaml:"provider" default:"yahoo" validate:"oneof=yahoo rest"`
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		HistoryDays int           `yaml:"history_days" default:"90" validate:"gte=2"`
		Timeout     time.Duration `yaml:"timeout" default:"15s"`
	} `yaml:"data_source"`
	Indicator struct {
		Period     int     `yaml:"period" default:"14" validate:"gte=1"`
		Overbought float64 `yaml:"overbought" default:"70" validate:"gte=0,lte=100"`
		Oversold   float64 `yaml:"oversold" default:"30" validate:"gte=0,lte=100"`
	} `yaml:"indicator"`
	Schedule struct {
		Interval         time.Duration `yaml:"interval" default:"30s"`
		FetchTimeout     time.Duration `yaml:"fetch_timeout" default:"20s"`
		MaxConcurrency   int           `yaml:"max_concurrency" default:"4" validate:"gte=1,lte=64"`
		MaxBackoffCycles int           `yaml:"max_backoff_cycles" validate:"gte=0"`
		RunOnStart       bool          `yaml:"run_on_start" default:"true"`
	} `yaml:"schedule"`
	Watchlist struct {
		File          string   `yaml:"file" default:"data/watchlist.json" validate:"required"`
		Seed          []string `yaml:"seed"`
		ValidateOnAdd bool     `yaml:"validate_on_add" default:"true"`
	} `yaml:"watchlist"`
	Cache struct {
		Backend string        `yaml:"backend" default:"memory" validate:"oneof=memory redis none"`
		TTL     time.Duration `yaml:"ttl" default:"60s"`
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db" validate:"gte=0"`
			Prefix   string `yaml:"prefix" default:"rsitracker:"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/rsi_tracker.db"`
	} `yaml:"database"`
	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Server struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Addr    string `yaml:"addr" default:":8080"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RSI_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Schedule.Interval = d
		}
	}
	if v := os.Getenv("RSI_PERIOD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indicator.Period = n
		}
	}
	if v := os.Getenv("WATCHLIST_FILE"); v != "" {
		cfg.Watchlist.File = v
	}
	if v := os.Getenv("WATCHLIST_SEED"); v != "" {
		cfg.Watchlist.Seed = strings.Split(v, ",")
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
		cfg.DataSource.Provider = "rest"
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
		cfg.Telegram.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
		cfg.Cache.Backend = "redis"
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Schedule.Interval < time.Second {
		return fmt.Errorf("schedule.interval must be at least 1s")
	}
	if c.Schedule.FetchTimeout <= 0 {
		return fmt.Errorf("schedule.fetch_timeout must be positive")
	}
	if c.Indicator.Oversold >= c.Indicator.Overbought {
		return fmt.Errorf("indicator.oversold must be below indicator.overbought")
	}
	if c.DataSource.HistoryDays < c.Indicator.Period+1 {
		return fmt.Errorf("data_source.history_days must be at least indicator.period+1")
	}
	if c.DataSource.Provider == "rest" && c.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required for the rest provider")
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for the redis backend")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if _, err := strconv.ParseInt(c.Telegram.ChatID, 10, 64); err != nil {
			return fmt.Errorf("telegram.chat_id must be numeric when telegram is enabled")
		}
	}
	return nil
}
