package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/paritybot/config"
	"github.com/alejandrodnm/paritybot/internal/adapters/etrade"
	"github.com/alejandrodnm/paritybot/internal/adapters/storage"
	"github.com/alejandrodnm/paritybot/internal/ports"
	"github.com/alejandrodnm/paritybot/internal/scanner"
)

// options son los flags de la línea de comandos.
type options struct {
	configPath string
	once       bool
	symbol     string
	replay     bool
	record     bool
	format     string
	verbose    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "config/config.yaml", "path to config file")
	flag.BoolVar(&opts.once, "once", false, "run one scan cycle and exit")
	flag.StringVar(&opts.symbol, "symbol", "", "underlying symbol (overrides config)")
	flag.BoolVar(&opts.replay, "replay", false, "scan the last recorded snapshot instead of calling the API")
	flag.BoolVar(&opts.record, "record", false, "record every fetched quote + chain to the snapshot store")
	flag.StringVar(&opts.format, "format", "table", "output: table|compact|csv")
	flag.BoolVar(&opts.verbose, "verbose", false, "set log level to debug")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, opts, os.Stdin, os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		slog.Error("paritybot exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("paritybot stopped cleanly")
}

// run carga la config, arma las dependencias y ejecuta el scanner. Los recursos
// abiertos se cierran siempre antes de volver.
func run(ctx context.Context, opts options, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config %q: %w", opts.configPath, err)
	}

	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	if opts.symbol != "" {
		cfg.Scanner.Symbol = opts.symbol
	}
	setupLogger(cfg.Log, stderr)

	scanCfg, err := buildScanConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid scanner config: %w", err)
	}
	scanCfg.DryRun = opts.once || opts.replay

	notifier, err := newNotifier(opts.format, stdout)
	if err != nil {
		return fmt.Errorf("invalid output format: %w", err)
	}

	slog.Info("paritybot starting",
		"config", opts.configPath,
		"symbol", scanCfg.Symbol,
		"interval", scanCfg.ScanInterval,
		"base_url", cfg.API.BaseURL,
		"oauth_base_url", cfg.API.OAuthBaseURL,
		"on_malformed", scanCfg.OnMalformed.String(),
		"once", opts.once,
		"replay", opts.replay,
		"record", opts.record,
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
	}
	defer store.Close()

	var (
		market   ports.MarketDataProvider = store
		recorder ports.SnapshotStore
	)
	if !opts.replay {
		client := etrade.NewClient(cfg.API.BaseURL, cfg.API.OAuthBaseURL, cfg.API.AuthorizeURL, etrade.Credentials{
			Key:    cfg.API.ConsumerKey,
			Secret: cfg.API.ConsumerSecret,
		})
		if err := authenticate(ctx, client, store, cfg.API.ConsumerKey, stdin, stderr); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		market = client
		if opts.record {
			recorder = store
		}
	}

	s := scanner.New(scanCfg, market, notifier, recorder)
	if err := s.Run(ctx); err != nil {
		return fmt.Errorf("scanner: %w", err)
	}
	return nil
}

func setupLogger(cfg config.LogConfig, w io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Logs a stderr: stdout queda para la tabla o el CSV.
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
