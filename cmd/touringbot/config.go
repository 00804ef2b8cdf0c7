package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Brandonf2022/touringbot"
	tbhttp "github.com/Brandonf2022/touringbot/http"
	"github.com/Brandonf2022/touringbot/xlsx"
	"gopkg.in/yaml.v3"
)

// Environment variables read on top of the config file.
const (
	envDB     = "TOURINGBOT_DB"
	envAPIKey = "KB_API_KEY"
)

// Config holds harvest settings loaded from a YAML file.
type Config struct {
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	CollectionID string `yaml:"collection_id"`
	UserAgent    string `yaml:"user_agent"`

	StartYear   int    `yaml:"start_year"`
	Years       int    `yaml:"years"`
	VenueList   string `yaml:"venue_list"`
	VenueColumn string `yaml:"venue_column"`

	DBPath         string `yaml:"db_path"`
	CheckpointPath string `yaml:"checkpoint_path"`

	RateLimit             float64 `yaml:"rate_limit"`
	MaxRetries            int     `yaml:"max_retries"`
	InitialBackoffSeconds float64 `yaml:"initial_backoff_seconds"`
	BackoffFactor         float64 `yaml:"backoff_factor"`
	HTTPTimeoutSeconds    float64 `yaml:"http_timeout_seconds"`

	WindowSize         int     `yaml:"window_size"`
	BatchSize          int     `yaml:"batch_size"`
	Concurrency        int     `yaml:"concurrency"`
	SearchPageSize     int     `yaml:"search_page_size"`
	WindowPauseSeconds float64 `yaml:"window_pause_seconds"`

	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the settings used for keys missing from the file.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:               tbhttp.DefaultBaseURL,
		UserAgent:             "touringbot/1.0",
		Years:                 1,
		VenueColumn:           xlsx.DefaultColumn,
		DBPath:                defaultDBPath(),
		CheckpointPath:        "checkpoint.json",
		RateLimit:             1,
		MaxRetries:            tbhttp.DefaultMaxRetries,
		InitialBackoffSeconds: tbhttp.DefaultInitialBackoff.Seconds(),
		BackoffFactor:         tbhttp.DefaultBackoffFactor,
		WindowSize:            5,
		BatchSize:             100,
		Concurrency:           1,
		WindowPauseSeconds:    60,
		LogLevel:              "info",
	}
}

// LoadConfig reads the YAML file at path over DefaultConfig and applies
// environment overrides. A missing file is an error only if required is
// set. Unknown keys are rejected so typos do not go unnoticed.
func LoadConfig(path string, required bool) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !required:
	case err != nil:
		return nil, touringbot.WrapError(touringbot.ECONFIG, err, "reading config %s", path)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, touringbot.WrapError(touringbot.ECONFIG, err, "parsing config %s", path)
		}
	}

	if v := os.Getenv(envAPIKey); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv(envDB); v != "" {
		cfg.DBPath = v
	}
	return cfg, nil
}

// Validate returns ECONFIG if any setting is out of range.
func (c *Config) Validate() error {
	switch {
	case c.DBPath == "":
		return touringbot.Errorf(touringbot.ECONFIG, "db_path required")
	case c.CheckpointPath == "":
		return touringbot.Errorf(touringbot.ECONFIG, "checkpoint_path required")
	case c.RateLimit < 0:
		return touringbot.Errorf(touringbot.ECONFIG, "rate_limit must not be negative")
	case c.MaxRetries < 1:
		return touringbot.Errorf(touringbot.ECONFIG, "max_retries must be at least 1")
	case c.InitialBackoffSeconds < 0:
		return touringbot.Errorf(touringbot.ECONFIG, "initial_backoff_seconds must not be negative")
	case c.BackoffFactor < 1:
		return touringbot.Errorf(touringbot.ECONFIG, "backoff_factor must be at least 1")
	case c.HTTPTimeoutSeconds < 0:
		return touringbot.Errorf(touringbot.ECONFIG, "http_timeout_seconds must not be negative")
	case c.WindowSize < 0:
		return touringbot.Errorf(touringbot.ECONFIG, "window_size must not be negative")
	case c.BatchSize < 1:
		return touringbot.Errorf(touringbot.ECONFIG, "batch_size must be at least 1")
	case c.Concurrency < 1:
		return touringbot.Errorf(touringbot.ECONFIG, "concurrency must be at least 1")
	case c.SearchPageSize < 0:
		return touringbot.Errorf(touringbot.ECONFIG, "search_page_size must not be negative")
	case c.WindowPauseSeconds < 0:
		return touringbot.Errorf(touringbot.ECONFIG, "window_pause_seconds must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// ValidateCampaign returns ECONFIG unless the settings describe a harvest.
func (c *Config) ValidateCampaign() error {
	switch {
	case c.StartYear < 1:
		return touringbot.Errorf(touringbot.ECONFIG, "start_year required")
	case c.Years < 1:
		return touringbot.Errorf(touringbot.ECONFIG, "years must be at least 1")
	case c.VenueList == "":
		return touringbot.Errorf(touringbot.ECONFIG, "venue_list required")
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, touringbot.Errorf(touringbot.ECONFIG, "invalid log_level %q", c.LogLevel)
	}
	return level, nil
}

// RetryPolicy returns the fetch retry schedule.
func (c *Config) RetryPolicy() touringbot.RetryPolicy {
	return touringbot.RetryPolicy{
		MaxAttempts:    c.MaxRetries,
		InitialBackoff: seconds(c.InitialBackoffSeconds),
		Factor:         c.BackoffFactor,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "touringbot.db"
	}
	return filepath.Join(home, ".touringbot", "touringbot.db")
}
