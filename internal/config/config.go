// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Reddit    RedditConfig    `mapstructure:"reddit"`
	Rate      RateConfig      `mapstructure:"rate"`
	DB        DBConfig        `mapstructure:"db"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Collector CollectorConfig `mapstructure:"collector"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// RedditConfig configures the upstream listing client.
type RedditConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	UserAgent      string `mapstructure:"user_agent"`
	PageLimit      int    `mapstructure:"page_limit"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// RateConfig governs the per-run call rate policy.
type RateConfig struct {
	MaxCallsPerMinute  int      `mapstructure:"max_calls_per_minute"`
	MinSpacingMs       int      `mapstructure:"min_spacing_ms"`
	RunBudget          int      `mapstructure:"run_budget"`
	BackoffBaseSeconds int      `mapstructure:"backoff_base_seconds"`
	BackoffMaxSeconds  int      `mapstructure:"backoff_max_seconds"`
	BlockedKeywords    []string `mapstructure:"blocked_keywords"`
}

// DBConfig controls access to the relational database. An empty DSN selects
// the no-op store.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
	Migrate  bool   `mapstructure:"migrate"`
}

// MonitorConfig governs admission and storage bounds.
type MonitorConfig struct {
	MaxContentChars int    `mapstructure:"max_content_chars"`
	DefaultWindow   string `mapstructure:"default_window"`
}

// CollectorConfig selects the listing source implementation.
type CollectorConfig struct {
	Mode string `mapstructure:"mode"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("reddit.base_url", "https://www.reddit.com")
	v.SetDefault("reddit.user_agent", "")
	v.SetDefault("reddit.page_limit", 25)
	v.SetDefault("reddit.timeout_seconds", 10)
	v.SetDefault("rate.max_calls_per_minute", 30)
	v.SetDefault("rate.min_spacing_ms", 2000)
	v.SetDefault("rate.run_budget", 100)
	v.SetDefault("rate.backoff_base_seconds", 5)
	v.SetDefault("rate.backoff_max_seconds", 60)
	v.SetDefault("rate.blocked_keywords", []string{})
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("db.migrate", true)
	v.SetDefault("monitor.max_content_chars", 10000)
	v.SetDefault("monitor.default_window", "7d")
	v.SetDefault("collector.mode", "public")
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Collector.Mode != "public" && c.Collector.Mode != "mock" {
		return fmt.Errorf("collector.mode must be one of: public, mock")
	}
	if c.Collector.Mode == "public" && c.Reddit.UserAgent == "" {
		return fmt.Errorf("reddit.user_agent is required for the public collector")
	}
	if c.Reddit.PageLimit <= 0 || c.Reddit.PageLimit > 100 {
		return fmt.Errorf("reddit.page_limit must be in 1..100")
	}
	if c.Rate.MaxCallsPerMinute <= 0 {
		return fmt.Errorf("rate.max_calls_per_minute must be > 0")
	}
	if c.Rate.RunBudget <= 0 {
		return fmt.Errorf("rate.run_budget must be > 0")
	}
	if c.Rate.BackoffMaxSeconds < c.Rate.BackoffBaseSeconds {
		return fmt.Errorf("rate.backoff_max_seconds must be >= rate.backoff_base_seconds")
	}
	if c.Monitor.MaxContentChars <= 0 {
		return fmt.Errorf("monitor.max_content_chars must be > 0")
	}
	return nil
}

// FetchTimeout converts the upstream timeout setting into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Reddit.TimeoutSeconds) * time.Second
}
