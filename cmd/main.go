/**
 * @description
 * This is the main entry point for the recurring donation service. It wires
 * together configuration, database pool, migrations, the RabbitMQ producer,
 * the settlement executor and batch runner, the optional embedded cron
 * trigger, and the HTTP server, then runs until a termination signal.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/api"
	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/app"
	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/config"
	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/db"
	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/store"
	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env for local development; in deployed environments the variables
	// come from the orchestrator.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	// Establish database connection with connection pool configuration
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to work with PgBouncer transaction pooling
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// RabbitMQ is optional: notifications degrade to database-only delivery
	// when the broker is unreachable.
	var publisher rabbitmq.Publisher
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("rabbitmq unavailable, notification events disabled", "error", err)
			publisher = &rabbitmq.EventProducerFallback{}
		} else {
			publisher = producer
			logger.Info("rabbitmq connection established")
		}
	} else {
		publisher = &rabbitmq.EventProducerFallback{}
	}
	defer publisher.Close()

	// Initialize application layers
	repository := store.NewRepository(dbpool)
	notifier := app.NewRecordingNotifier(repository, publisher, logger)
	executor := app.NewExecutor(app.NewLedger(repository), repository, notifier, logger)
	runner := app.NewRunner(repository, executor, logger,
		cfg.WorkerCount, time.Duration(cfg.SettleTimeoutSeconds)*time.Second)
	service := app.NewService(repository)

	handler := api.NewHandler(runner, service)
	router := api.NewRouter(handler, cfg.InternalAPIKey)

	var scheduler *app.Scheduler
	if cfg.CronEnabled {
		scheduler = app.NewScheduler(runner, logger, cfg.CronSchedule)
		scheduler.Start()
		logger.Info("embedded scheduler started", "schedule", cfg.CronSchedule)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	if scheduler != nil {
		stopCtx := scheduler.Stop()
		<-stopCtx.Done() // Wait for any in-flight batch to finish
		logger.Info("embedded scheduler stopped")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
