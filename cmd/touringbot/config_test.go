package main_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Brandonf2022/touringbot"
	main "github.com/Brandonf2022/touringbot/cmd/touringbot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "touringbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("uses defaults when an optional file is missing", func(t *testing.T) {
		t.Parallel()

		cfg, err := main.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)

		require.NoError(t, err)
		assert.Equal(t, "https://data.kb.se", cfg.BaseURL)
		assert.Equal(t, 5, cfg.MaxRetries)
		assert.InDelta(t, 5.0, cfg.InitialBackoffSeconds, 0.001)
		assert.InDelta(t, 2.0, cfg.BackoffFactor, 0.001)
		assert.Equal(t, 5, cfg.WindowSize)
		assert.Equal(t, 100, cfg.BatchSize)
		assert.Equal(t, "Lokal", cfg.VenueColumn)
		assert.InDelta(t, 60.0, cfg.WindowPauseSeconds, 0.001)
		require.NoError(t, cfg.Validate())
	})

	t.Run("returns config error when a required file is missing", func(t *testing.T) {
		t.Parallel()

		_, err := main.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), true)

		require.Error(t, err)
		assert.Equal(t, touringbot.ECONFIG, touringbot.ErrorCode(err))
	})

	t.Run("file values override defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
collection_id: https://libris.kb.se/2ldhmx8d4mcrlq9
start_year: 1908
years: 3
venue_list: venues.xlsx
rate_limit: 0.5
max_retries: 3
initial_backoff_seconds: 1.5
window_size: 2
batch_size: 50
log_level: debug
`)

		cfg, err := main.LoadConfig(path, true)

		require.NoError(t, err)
		assert.Equal(t, "https://libris.kb.se/2ldhmx8d4mcrlq9", cfg.CollectionID)
		assert.Equal(t, 1908, cfg.StartYear)
		assert.Equal(t, 3, cfg.Years)
		assert.Equal(t, "venues.xlsx", cfg.VenueList)
		assert.InDelta(t, 0.5, cfg.RateLimit, 0.001)
		assert.Equal(t, 2, cfg.WindowSize)
		assert.Equal(t, 50, cfg.BatchSize)
		assert.Equal(t, "https://data.kb.se", cfg.BaseURL, "unset keys keep defaults")

		policy := cfg.RetryPolicy()
		assert.Equal(t, 3, policy.MaxAttempts)
		assert.Equal(t, 1500*time.Millisecond, policy.InitialBackoff)
		assert.InDelta(t, 2.0, policy.Factor, 0.001)
	})

	t.Run("accepts an empty file", func(t *testing.T) {
		t.Parallel()

		cfg, err := main.LoadConfig(writeConfig(t, ""), true)

		require.NoError(t, err)
		assert.Equal(t, 100, cfg.BatchSize)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()

		_, err := main.LoadConfig(writeConfig(t, "rate_limt: 2\n"), true)

		require.Error(t, err)
		assert.Equal(t, touringbot.ECONFIG, touringbot.ErrorCode(err))
	})

	t.Run("rejects invalid YAML", func(t *testing.T) {
		t.Parallel()

		_, err := main.LoadConfig(writeConfig(t, "years: [1\n"), true)

		require.Error(t, err)
		assert.Equal(t, touringbot.ECONFIG, touringbot.ErrorCode(err))
	})
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("KB_API_KEY", "env-key")
	t.Setenv("TOURINGBOT_DB", "/tmp/env.db")

	cfg, err := main.LoadConfig(writeConfig(t, "api_key: file-key\ndb_path: file.db\n"), true)

	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*main.Config)
	}{
		{"negative rate limit", func(c *main.Config) { c.RateLimit = -1 }},
		{"zero max retries", func(c *main.Config) { c.MaxRetries = 0 }},
		{"negative initial backoff", func(c *main.Config) { c.InitialBackoffSeconds = -1 }},
		{"shrinking backoff factor", func(c *main.Config) { c.BackoffFactor = 0.5 }},
		{"negative window size", func(c *main.Config) { c.WindowSize = -1 }},
		{"zero batch size", func(c *main.Config) { c.BatchSize = 0 }},
		{"zero concurrency", func(c *main.Config) { c.Concurrency = 0 }},
		{"negative search page size", func(c *main.Config) { c.SearchPageSize = -10 }},
		{"negative window pause", func(c *main.Config) { c.WindowPauseSeconds = -1 }},
		{"negative HTTP timeout", func(c *main.Config) { c.HTTPTimeoutSeconds = -1 }},
		{"empty db path", func(c *main.Config) { c.DBPath = "" }},
		{"empty checkpoint path", func(c *main.Config) { c.CheckpointPath = "" }},
		{"unknown log level", func(c *main.Config) { c.LogLevel = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := main.DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Equal(t, touringbot.ECONFIG, touringbot.ErrorCode(err))
		})
	}

	t.Run("zero window size is valid", func(t *testing.T) {
		t.Parallel()

		cfg := main.DefaultConfig()
		cfg.WindowSize = 0

		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_ValidateCampaign(t *testing.T) {
	t.Parallel()

	valid := func() *main.Config {
		cfg := main.DefaultConfig()
		cfg.StartYear = 1908
		cfg.VenueList = "venues.txt"
		return cfg
	}

	require.NoError(t, valid().ValidateCampaign())

	noYear := valid()
	noYear.StartYear = 0
	assert.Equal(t, touringbot.ECONFIG, touringbot.ErrorCode(noYear.ValidateCampaign()))

	noYears := valid()
	noYears.Years = 0
	assert.Equal(t, touringbot.ECONFIG, touringbot.ErrorCode(noYears.ValidateCampaign()))

	noVenues := valid()
	noVenues.VenueList = ""
	assert.Equal(t, touringbot.ECONFIG, touringbot.ErrorCode(noVenues.ValidateCampaign()))
}
