package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flight-delay-dashboard/internal/airports"
	"flight-delay-dashboard/internal/api"
	"flight-delay-dashboard/internal/batch"
	"flight-delay-dashboard/internal/config"
	"flight-delay-dashboard/internal/scheduler"
	"flight-delay-dashboard/internal/services"
	"flight-delay-dashboard/internal/store"
	"flight-delay-dashboard/pkg/client"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting Flight Delay Dashboard Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Connection pool lifecycle is explicit: created here, closed on
	// shutdown, injected into the store.
	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := pgxpool.New(poolCtx, cfg.DSN())
	poolCancel()
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	clientConfig := client.ClientConfig{
		Timeout:        cfg.Predictor.Timeout,
		MaxRetries:     cfg.Retry.MaxRetries,
		RetryDelay:     cfg.Retry.Delay,
		Multiplier:     cfg.Retry.Multiplier,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
	}

	// Airport directory, loaded once up front; failures degrade to an
	// empty mapping and the dashboard renders without coordinates.
	directoryConfig := clientConfig
	directoryConfig.Timeout = cfg.Airports.FetchTimeout
	directory := airports.NewDirectory(cfg.Airports.SourceURL, cfg.Airports.RefreshInterval, directoryConfig, logger)

	loadCtx, loadCancel := context.WithTimeout(context.Background(), cfg.Airports.FetchTimeout)
	directory.Load(loadCtx)
	loadCancel()

	// Data pipeline
	recordStore := store.NewRecordStore(pool, directory, cfg.Database.QueryTimeout)
	cache := services.NewSnapshotCache(cfg.Cache.TTL, logger)
	dataset := services.NewDataset(recordStore, cache, logger)

	// Prediction path
	predictor := client.NewPredictorClient(cfg.Predictor.BaseURL, clientConfig, logger)
	orchestrator := batch.NewOrchestrator(predictor, batch.Strategy(cfg.Batch.Strategy), logger)

	// Scheduler keeps the snapshots warm
	refresher := scheduler.NewScheduler(dataset, directory, cfg.Scheduler.RefreshInterval, logger)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: errorHandler,
	})

	// Setup handlers and routes
	handler := api.NewHandler(dataset, directory, orchestrator, logger)
	api.SetupRoutes(app, handler, logger)

	// Start scheduler
	if err := refresher.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	refresher.Stop()
	cache.Stop()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func errorHandler(c *fiber.Ctx, err error) error {
	zap.L().Error("HTTP error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))

	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   err.Error(),
		"success": false,
	})
}
