// Package main implements the entry point for the Parley API server,
// which pairs participants holding similar opinions for one-on-one
// discussions on a chosen topic.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/parleyhq/parley-api/internal/config"
	"github.com/parleyhq/parley-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a migration command (up, down, status) instead of starting the server")
	flag.Parse()

	cfg, appLogger, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if *migrateCmd != "" {
		if err := runMigrationCommand(cfg, *migrateCmd); err != nil {
			appLogger.Error("Migration failed", "command", *migrateCmd, "error", err)
			os.Exit(1)
		}
		return
	}

	ctx := context.Background()

	db, err := setupAppDatabase(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		appLogger.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		appLogger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, err
	}

	appLogger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"batch_interval_minutes", cfg.Scheduler.IntervalMinutes,
		"redis_enabled", cfg.Redis.URL != "")

	return cfg, appLogger, nil
}
