// Package main is the entry point for the Loonie currency service.
// Loonie detects whether a visitor is in Canada, remembers their USD/CAD
// display preference and converts listing prices and order breakdowns
// into the currency they expect.
//
// The application follows the same layering throughout:
// - Domain layer is pure (no infrastructure dependencies)
// - Dependency injection via DI container
// - Cache stores behind a small key/value interface
// - Service layer for rate lookup, location detection and conversion
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/loonie/internal/config"
	"github.com/aristath/loonie/internal/di"
	"github.com/aristath/loonie/internal/server"
	"github.com/aristath/loonie/pkg/logger"
)

// main is the application entry point. It orchestrates the startup sequence:
// 1. Loads configuration from environment variables (.env supported)
// 2. Initializes logging
// 3. Wires all dependencies via DI container (database, cache stores, clients, services, jobs)
// 4. Warms the exchange rate cache
// 5. Starts the scheduler and HTTP server
// 6. Waits for a shutdown signal and shuts down gracefully
func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("cache_backend", cfg.Cache.Backend).
		Str("coordinate_source", cfg.Location.CoordinateSource).
		Msg("Starting Loonie")

	// Wire all dependencies using DI container
	// Order: client_data.db, cache stores, outbound clients, services, scheduled jobs
	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	// Close the cache backend and database on exit so the WAL is checkpointed
	defer container.Close()

	// Warm the rate cache so the first visitor does not wait on the rate API.
	// Failure is not fatal; the service falls back to the configured rate.
	if err := container.Scheduler.RunNow(jobs.RateRefresh); err != nil {
		log.Warn().Err(err).Msg("Initial exchange rate refresh failed")
	}

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
	})

	// Start server in goroutine so shutdown signals can be handled below
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop scheduling new job runs; waits for running jobs to finish
	container.Scheduler.Stop()

	// The HTTP server is given up to 10 seconds to finish in-flight requests
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
