package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/parleyhq/parley-api/internal/config"
	"github.com/parleyhq/parley-api/internal/domain"
	"github.com/parleyhq/parley-api/internal/platform/postgres"
	"github.com/parleyhq/parley-api/internal/platform/redisstore"
	"github.com/parleyhq/parley-api/internal/scheduler"
	"github.com/parleyhq/parley-api/internal/service"
	"github.com/parleyhq/parley-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client

	userStore  store.UserStore
	scoreStore store.OpinionScoreStore
	dimStore   store.DimensionStore
	transactor store.Transactor

	userService    service.UserService
	opinionService service.OpinionService
	matchService   service.MatchService

	batchScheduler *scheduler.BatchScheduler
}

// newApplication creates a new application instance with all dependencies
// initialized. The database connection must already be established; the
// schema is migrated here so a fresh database comes up ready.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	// Stores and the shared transaction runner.
	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.scoreStore = postgres.NewPostgresOpinionScoreStore(db, logger)
	app.dimStore = postgres.NewPostgresDimensionStore(db, logger)
	app.transactor = store.NewTransactor(db)

	// Arrival tracking is Redis-backed when configured. Without Redis the
	// expiry pass treats every meeting as missed once its slot passes,
	// which is the safe default for a single-node deployment.
	tracker, err := setupArrivalTracker(ctx, app, cfg, logger)
	if err != nil {
		return nil, err
	}

	window, err := slotWindowFromConfig(cfg.Matching)
	if err != nil {
		return nil, err
	}

	app.userService, err = service.NewUserService(app.userStore, window, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	app.opinionService, err = service.NewOpinionService(
		app.transactor,
		app.userStore,
		app.scoreStore,
		app.dimStore,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create opinion service: %w", err)
	}

	app.matchService, err = service.NewMatchService(
		app.transactor,
		app.userStore,
		app.dimStore,
		tracker,
		cfg.Matching.MaxMatchAge(),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create match service: %w", err)
	}

	app.batchScheduler, err = scheduler.NewBatchScheduler(
		app.matchService,
		cfg.Scheduler.Interval(),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch scheduler: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupArrivalTracker connects to Redis when a URL is configured and falls
// back to the no-op tracker otherwise.
func setupArrivalTracker(
	ctx context.Context,
	app *application,
	cfg *config.Config,
	logger *slog.Logger,
) (service.ArrivalTracker, error) {
	if cfg.Redis.URL == "" {
		logger.Warn("Redis not configured, arrival tracking disabled")
		return noArrivalTracker{}, nil
	}

	client, err := redisstore.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redis = client

	logger.Info("Redis connection established",
		"arrival_ttl_hours", cfg.Redis.ArrivalTTLHours)
	return redisstore.NewArrivalTracker(client, cfg.Redis.ArrivalTTL(), logger), nil
}

// slotWindowFromConfig parses the configured window dates into a SlotWindow.
func slotWindowFromConfig(cfg config.MatchingConfig) (domain.SlotWindow, error) {
	start, err := time.Parse("2006-01-02", cfg.SlotWindowStart)
	if err != nil {
		return domain.SlotWindow{}, fmt.Errorf("invalid slot window start: %w", err)
	}
	end, err := time.Parse("2006-01-02", cfg.SlotWindowEnd)
	if err != nil {
		return domain.SlotWindow{}, fmt.Errorf("invalid slot window end: %w", err)
	}
	if end.Before(start) {
		return domain.SlotWindow{}, fmt.Errorf("slot window end %s precedes start %s",
			cfg.SlotWindowEnd, cfg.SlotWindowStart)
	}
	return domain.SlotWindow{Start: start, End: end, Hours: cfg.SlotHours}, nil
}

// Run starts the batch scheduler and the HTTP server, handling lifecycle
// and cleanup. It blocks until shutdown completes.
func (app *application) Run(ctx context.Context) error {
	app.batchScheduler.Start(ctx)

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.batchScheduler != nil {
		app.batchScheduler.Stop()
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("Error closing redis connection", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}

// noArrivalTracker is the fallback when Redis is not configured: nobody is
// ever recorded as arrived, so expiry applies its slot-passed rule uniformly.
type noArrivalTracker struct{}

func (noArrivalTracker) MarkArrived(ctx context.Context, meetingID, userID uuid.UUID) error {
	return nil
}

func (noArrivalTracker) HasArrived(ctx context.Context, meetingID, userID uuid.UUID) (bool, error) {
	return false, nil
}

func (noArrivalTracker) BothArrived(ctx context.Context, meetingID, userA, userB uuid.UUID) (bool, error) {
	return false, nil
}

func (noArrivalTracker) Clear(ctx context.Context, meetingID uuid.UUID, userIDs ...uuid.UUID) error {
	return nil
}
