package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Brandonf2022/touringbot"
	"github.com/Brandonf2022/touringbot/etree"
	"github.com/Brandonf2022/touringbot/fs"
	"github.com/Brandonf2022/touringbot/harvest"
	tbhttp "github.com/Brandonf2022/touringbot/http"
	tbslog "github.com/Brandonf2022/touringbot/slog"
	"github.com/Brandonf2022/touringbot/sqlite"
	"github.com/alecthomas/kong"
)

// defaultConfigPath is read when --config is not given. It may be absent.
const defaultConfigPath = "touringbot.yaml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Config is the loaded configuration. Set by Run.
	Config *Config

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	RecordService   touringbot.RecordService
	CheckpointStore touringbot.CheckpointStore
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("touringbot"),
		kong.Description("Harvest venue passages from digitized newspapers."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'touringbot --help' to see available commands")
	}

	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	cfg, err := m.loadConfig(cli)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", touringbot.ErrorMessage(err))
		return err
	}
	m.Config = cfg

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	deps.Config = cfg
	deps.Logger = logger

	m.CheckpointStore = fs.NewCheckpointStore(cfg.CheckpointPath)
	deps.Checkpoints = m.CheckpointStore

	if cmd == "checkpoint" {
		return kongCtx.Run(deps)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." && cfg.DBPath != ":memory:" {
		_ = os.MkdirAll(dir, 0o755)
	}
	m.DB = sqlite.NewDB(cfg.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set %s or db_path to use a different database path\n", envDB)
		return fmt.Errorf("failed to open database at %q: %w", cfg.DBPath, err)
	}
	defer m.Close()

	m.RecordService = sqlite.NewRecordService(m.DB)
	deps.Records = m.RecordService

	if cmd == "harvest" {
		h, err := newHarvester(cfg, logger, m.RecordService, m.CheckpointStore)
		if err != nil {
			fmt.Fprintf(stderr, "error: %s\n", touringbot.ErrorMessage(err))
			return err
		}
		deps.Harvester = h
	}

	return kongCtx.Run(deps)
}

// loadConfig reads the config file and applies global flag overrides.
func (m *Main) loadConfig(cli *CLI) (*Config, error) {
	path, required := cli.Config, true
	if path == "" {
		path, required = defaultConfigPath, false
	}
	cfg, err := LoadConfig(path, required)
	if err != nil {
		return nil, err
	}
	if cli.DB != "" {
		cfg.DBPath = cli.DB
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newHarvester wires the archive clients, parser and stores into a
// Harvester. Every fetch shares one rate limiter.
func newHarvester(cfg *Config, logger *slog.Logger, records touringbot.RecordService, checkpoints touringbot.CheckpointStore) (*harvest.Harvester, error) {
	resolver, err := tbhttp.NewManifestResolver(cfg.BaseURL, cfg.APIKey)
	if err != nil {
		return nil, err
	}

	policy := cfg.RetryPolicy()
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warn("retrying fetch", "attempt", attempt, "delay", delay, "err", err)
	}
	fetcher := tbhttp.NewFetcher(
		tbhttp.WithTimeout(seconds(cfg.HTTPTimeoutSeconds)),
		tbhttp.WithRateLimiter(harvest.NewLimiter(cfg.RateLimit)),
		tbhttp.WithRetry(policy),
		tbhttp.WithUserAgent(cfg.UserAgent),
	)
	search := tbhttp.NewSearchService(&http.Client{Timeout: seconds(cfg.HTTPTimeoutSeconds)}, cfg.BaseURL)

	windowSize := cfg.WindowSize
	if windowSize == 0 {
		windowSize = -1
	}

	return &harvest.Harvester{
		Search:         tbslog.NewLoggingSearchService(search, logger),
		Fetcher:        tbslog.NewLoggingFetcher(fetcher, logger),
		Resolver:       resolver,
		Parser:         etree.NewParser(),
		Records:        tbslog.NewLoggingRecordService(records, logger),
		Checkpoints:    checkpoints,
		Logger:         logger,
		CollectionID:   cfg.CollectionID,
		WindowSize:     windowSize,
		BatchSize:      cfg.BatchSize,
		Concurrency:    cfg.Concurrency,
		SearchPageSize: cfg.SearchPageSize,
		WindowPause:    seconds(cfg.WindowPauseSeconds),
	}, nil
}
