package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/mmynk/tipbot/internal/api"
	"github.com/mmynk/tipbot/internal/bot"
	"github.com/mmynk/tipbot/internal/config"
	"github.com/mmynk/tipbot/internal/metrics"
	"github.com/mmynk/tipbot/internal/rates"
	"github.com/mmynk/tipbot/internal/service"
	"github.com/mmynk/tipbot/internal/storage"
	"github.com/mmynk/tipbot/internal/storage/postgres"
	"github.com/mmynk/tipbot/internal/storage/sqlite"
	"github.com/mmynk/tipbot/internal/telegram"
	"github.com/mmynk/tipbot/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	if err := run(); err != nil {
		slog.Error("tipbot failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(getEnv("TIPBOT_CONFIG", ""))
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.Storage.Driver)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	snapshots, closeSnapshots, err := openSnapshotStore(ctx, cfg.Rates)
	if err != nil {
		return err
	}
	defer closeSnapshots()

	provider := rates.NewProvider(
		rates.NewCBRFetcher(cfg.Rates.SourceURL, cfg.Rates.Timeout),
		rates.WithSnapshotStore(snapshots),
		rates.WithStaleAfter(cfg.Rates.StaleAfter),
		rates.WithTimeout(cfg.Rates.Timeout),
		rates.WithLogger(logger.With("component", "rates")),
		rates.WithObserver(m),
	)

	client := telegram.NewClient(cfg.Telegram.APIBase, cfg.Telegram.Token, cfg.Telegram.RequestTimeout,
		telegram.WithSendRate(cfg.Telegram.SendRPS))

	dispatcher := bot.NewDispatcher(
		service.NewTipService(store, service.WithCalculationObserver(m)),
		service.NewConvertService(provider),
		client,
		bot.WithBotName(cfg.Telegram.BotName),
		bot.WithMetrics(m),
	)

	serverCfg := api.Config{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		WebhookSecret:   cfg.Telegram.WebhookSecret,
	}

	var wg sync.WaitGroup
	var serverErr error

	switch cfg.Telegram.Mode {
	case config.ModeWebhook:
		if err := client.SetWebhook(ctx, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			return fmt.Errorf("failed to set webhook: %w", err)
		}
		slog.Info("Webhook registered", "url", cfg.Telegram.WebhookURL)

		server := api.NewServer(ctx, serverCfg, store, reg, dispatcher, logger.With("component", "api"))
		serverErr = server.Run(ctx)

	default:
		if err := client.DeleteWebhook(ctx); err != nil {
			slog.Warn("Failed to delete webhook", "error", err)
		}

		server := api.NewServer(ctx, serverCfg, store, reg, nil, logger.With("component", "api"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Run(ctx); err != nil {
				slog.Error("Ops server failed", "error", err)
				stop()
			}
		}()

		poller := bot.NewPoller(client, dispatcher, cfg.Telegram.PollTimeout, logger.With("component", "poller"))
		poller.Run(ctx)
	}

	wg.Wait()
	slog.Info("tipbot stopped")
	return serverErr
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.PostgresDSN)
	default:
		return sqlite.New(cfg.SQLitePath)
	}
}

func openSnapshotStore(ctx context.Context, cfg config.RatesConfig) (rates.SnapshotStore, func(), error) {
	if cfg.Cache != config.CacheRedis {
		return rates.NewMemorySnapshotStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Info("Rate snapshots shared through redis", "addr", cfg.RedisAddr)

	return rates.NewRedisSnapshotStore(client, cfg.RedisKey), func() { client.Close() }, nil
}
