// Package api exposes an open ledger file over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oaif-format/oaif/internal/api/handler"
	"github.com/oaif-format/oaif/internal/config"
	"github.com/oaif-format/oaif/internal/engine"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server over an open ledger
// handle
func NewServer(log *slog.Logger, cfg *config.Config, h *engine.Handle) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	accountHandler := handler.NewAccountHandler(log, h.Entities, h.AccountTypes)
	entityHandler := handler.NewEntityHandler(log, h.Entities)
	transactionHandler := handler.NewTransactionHandler(log, h.Ledger, h.TransactionTypes)
	lotHandler := handler.NewLotHandler(log, h.CostBasis)
	typeHandler := handler.NewTypeHandler(log, h.AccountTypes, h.TransactionTypes)
	extensionHandler := handler.NewExtensionHandler(log, h.Extensions)
	validationHandler := handler.NewValidationHandler(log, h.Validator)
	fileHandler := handler.NewFileHandler(log, h)

	setupRouter(log, httpRouter,
		accountHandler,
		entityHandler,
		transactionHandler,
		lotHandler,
		typeHandler,
		extensionHandler,
		validationHandler,
		fileHandler,
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	// Use server's write timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
