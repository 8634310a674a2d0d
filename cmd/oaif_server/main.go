package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/oaif-format/oaif/internal/api"
	"github.com/oaif-format/oaif/internal/config"
	"github.com/oaif-format/oaif/internal/domain/lots"
	"github.com/oaif-format/oaif/internal/engine"
	"github.com/oaif-format/oaif/internal/logger"
	"github.com/oaif-format/oaif/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("oaif_server")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Open the ledger file, creating it when it does not exist yet
	handle, err := openLedger(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to open ledger file", "path", cfg.Ledger.Path, "error", err)
		os.Exit(1)
	}

	// Initialize REST server
	server := api.NewServer(log, cfg, handle)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Close the ledger file
	if closeErr := handle.Close(); closeErr != nil {
		log.Error("Error closing ledger file", "error", closeErr)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}

func openLedger(ctx context.Context, log *slog.Logger, cfg *config.Config) (*engine.Handle, error) {
	opts := engine.Options{
		ReadOnly:              cfg.Ledger.ReadOnly,
		BalanceTolerance:      cfg.Ledger.BalanceTolerance,
		DefaultDisposalPolicy: lots.DisposalPolicy(cfg.Ledger.DefaultDisposalPolicy),
		ValidationWorkers:     cfg.WorkerPool.Size,
	}

	_, err := os.Stat(cfg.Ledger.Path)
	switch {
	case err == nil:
		return engine.Open(ctx, log, cfg.Ledger.Path, opts)
	case errors.Is(err, fs.ErrNotExist):
		if cfg.Ledger.ReadOnly {
			return nil, fmt.Errorf("ledger file %s does not exist and cannot be created read-only", cfg.Ledger.Path)
		}
		log.Info("Creating new ledger file", "path", cfg.Ledger.Path, "base_currency", cfg.Ledger.BaseCurrency)
		return engine.Create(ctx, log, cfg.Ledger.Path, persistence.CreateMeta{
			CreatedBy:    cfg.Ledger.CreatedBy,
			SourceSystem: cfg.Ledger.SourceSystem,
			CompanyName:  cfg.Ledger.CompanyName,
			BaseCurrency: cfg.Ledger.BaseCurrency,
		}, opts)
	default:
		return nil, err
	}
}
