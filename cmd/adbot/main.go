package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"adbot/internal/buildinfo"
	"adbot/internal/config"
	"adbot/internal/lockfile"
	"adbot/internal/logger"
	"adbot/internal/payment"
	"adbot/internal/storage"
	"adbot/internal/telegram"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional, real env vars win either way
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// refuse to start next to an already running copy: two pollers on one
	// token split updates between them
	guard := lockfile.New(cfg.Lock.Path)
	if err := guard.Acquire(); err != nil {
		return fmt.Errorf("instance lock: %w", err)
	}
	defer guard.Release()

	if err := logger.Init(cfg.Logging); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:     cfg.Sentry.DSN,
			Release: buildinfo.Version,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect storage: %w", err)
	}
	defer store.Close()

	if err := storage.RunMigrations(cfg.Database); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	bot, err := telegram.New(telegram.Options{
		Config:  cfg,
		Store:   store,
		Gateway: payment.NewStub(),
		Version: buildinfo.Version,
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "app", "app.ready",
		slog.String("payload", buildinfo.Version),
		slog.String("status", "ok"),
	)
	return bot.Run(ctx)
}
