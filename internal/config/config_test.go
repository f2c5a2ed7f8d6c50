package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RADAR_REDDIT_USER_AGENT", "radar-test/1.0")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://www.reddit.com", cfg.Reddit.BaseURL)
	assert.Equal(t, 25, cfg.Reddit.PageLimit)
	assert.Equal(t, 30, cfg.Rate.MaxCallsPerMinute)
	assert.Equal(t, 2000, cfg.Rate.MinSpacingMs)
	assert.Equal(t, 100, cfg.Rate.RunBudget)
	assert.Equal(t, 10000, cfg.Monitor.MaxContentChars)
	assert.Equal(t, "7d", cfg.Monitor.DefaultWindow)
	assert.Equal(t, "public", cfg.Collector.Mode)
	assert.True(t, cfg.DB.Migrate)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RADAR_REDDIT_USER_AGENT", "radar-test/1.0")
	t.Setenv("RADAR_SERVER_PORT", "9090")
	t.Setenv("RADAR_RATE_RUN_BUDGET", "10")
	t.Setenv("RADAR_DB_DSN", "postgres://localhost/radar")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Rate.RunBudget)
	assert.Equal(t, "postgres://localhost/radar", cfg.DB.DSN)
}

func TestLoadRequiresUserAgentForPublicCollector(t *testing.T) {
	t.Setenv("RADAR_REDDIT_USER_AGENT", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reddit.user_agent")
}

func TestLoadMockCollectorNeedsNoUserAgent(t *testing.T) {
	t.Setenv("RADAR_COLLECTOR_MODE", "mock")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.Collector.Mode)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7070
reddit:
  user_agent: radar-file/1.0
  page_limit: 50
rate:
  blocked_keywords:
    - nsfw
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "radar-file/1.0", cfg.Reddit.UserAgent)
	assert.Equal(t, 50, cfg.Reddit.PageLimit)
	assert.Equal(t, []string{"nsfw"}, cfg.Rate.BlockedKeywords)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server:    ServerConfig{Port: 8080},
		Reddit:    RedditConfig{UserAgent: "ua", PageLimit: 25},
		Rate:      RateConfig{MaxCallsPerMinute: 30, RunBudget: 100, BackoffBaseSeconds: 5, BackoffMaxSeconds: 60},
		Monitor:   MonitorConfig{MaxContentChars: 10000},
		Collector: CollectorConfig{Mode: "public"},
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"bad collector mode", func(c *Config) { c.Collector.Mode = "live" }},
		{"page limit too high", func(c *Config) { c.Reddit.PageLimit = 101 }},
		{"zero rate window", func(c *Config) { c.Rate.MaxCallsPerMinute = 0 }},
		{"zero run budget", func(c *Config) { c.Rate.RunBudget = 0 }},
		{"backoff cap below base", func(c *Config) { c.Rate.BackoffMaxSeconds = 1 }},
		{"zero content cap", func(c *Config) { c.Monitor.MaxContentChars = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
