package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinhopper/config"
	"coinhopper/internal/adapters/exchange"
	"coinhopper/internal/adapters/notify"
	"coinhopper/internal/adapters/storage"
	"coinhopper/internal/domain"
	"coinhopper/internal/scheduler"
	"coinhopper/internal/trader"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scout cycle and exit")
	report := flag.Bool("report", false, "print recent trades and value snapshots, then exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("coinhopper starting",
		"config", *configPath,
		"bridge", cfg.Trading.Bridge,
		"coins", len(cfg.Trading.Coins),
		"scout_interval", cfg.ScoutInterval(),
	)

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	console := notify.NewConsole()

	if *report {
		runReport(ctx, store, console)
		return
	}

	if err := store.SeedCoins(ctx, cfg.Trading.Coins); err != nil {
		slog.Error("failed to seed coins", "err", err)
		os.Exit(1)
	}

	client := exchange.NewClient(cfg.API.BaseURL, cfg.API.Key, cfg.API.Secret, cfg.Trading.FeeDefault)

	t := trader.New(trader.Config{
		Bridge:          domain.Coin{Symbol: cfg.Trading.Bridge},
		CurrentCoin:     cfg.Trading.CurrentCoin,
		ScoutMultiplier: cfg.Trading.ScoutMultiplier,
		BuyRetry: trader.RetryPolicy{
			MaxAttempts: cfg.Trading.BuyRetry.MaxAttempts,
			BaseWait:    time.Duration(cfg.Trading.BuyRetry.BaseWaitMillis) * time.Millisecond,
			MaxWait:     time.Duration(cfg.Trading.BuyRetry.MaxWaitMillis) * time.Millisecond,
		},
	}, client, store, console)

	// Configuration errors here are fatal before any trading starts.
	if err := t.InitializeCurrentCoin(ctx); err != nil {
		slog.Error("failed to initialize current coin", "err", err)
		os.Exit(1)
	}
	if err := t.InitializeThresholds(ctx); err != nil {
		slog.Error("failed to initialize trade thresholds", "err", err)
		os.Exit(1)
	}

	if *once {
		if err := t.Scout(ctx); err != nil {
			slog.Error("scout cycle failed", "err", err)
			os.Exit(1)
		}
		return
	}

	sched := scheduler.New(ctx)
	for _, job := range []struct {
		interval time.Duration
		name     string
		task     scheduler.Task
	}{
		{cfg.ScoutInterval(), "scout", t.Scout},
		{cfg.HeartbeatInterval(), "heartbeat", t.Heartbeat},
		{cfg.ValueInterval(), "update-values", t.UpdateValues},
	} {
		if err := sched.Every(job.interval, job.name, job.task); err != nil {
			slog.Error("failed to register task", "task", job.name, "err", err)
			os.Exit(1)
		}
	}

	sched.Start()
	defer sched.Stop()

	slog.Info("coinhopper is running, press Ctrl+C to stop")
	<-ctx.Done()
	slog.Info("shutdown signal received, stopping")
}

func runReport(ctx context.Context, store *storage.SQLiteStore, console *notify.Console) {
	trades, err := store.Trades(ctx, 20)
	if err != nil {
		slog.Error("failed to load trades", "err", err)
		os.Exit(1)
	}
	for _, tr := range trades {
		slog.Info("trade",
			"at", tr.ExecutedAt.Format(time.RFC3339),
			"from", tr.FromSymbol,
			"to", tr.ToSymbol,
			"sell_price", tr.SellPrice,
			"buy_price", tr.BuyPrice,
		)
	}

	values, err := store.RecentCoinValues(ctx, 20)
	if err != nil {
		slog.Error("failed to load coin values", "err", err)
		os.Exit(1)
	}
	if err := console.ValueReport(ctx, values); err != nil {
		slog.Error("failed to print value report", "err", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
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

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
