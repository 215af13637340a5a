package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"TransferDesk/internal/usecase/transfer"
	"TransferDesk/pkg/config"
	xhttp "TransferDesk/pkg/http"
	applogger "TransferDesk/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	registry    *transfer.Registry
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, registry *transfer.Registry, handler xhttp.Handler) *App {
	return &App{
		cfg:         cfg,
		logger:      l,
		registry:    registry,
		httpHandler: handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithAllowedOrigins(a.cfg.Server.AllowedOrigins),
		// submit waits on the signer and the stream stays open
		xhttp.WithSlowThreshold(a.cfg.Server.SlowThreshold, "/api/transfers/:id/submit", "/api/transfers/:id/ws"),
	}
	if a.cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(a.cfg.Metrics.Path, nil))
	}
	a.httpServer = xhttp.NewServer(a.httpHandler, a.logger, opts...)

	// Evict idle sessions
	go a.registry.Run(ctx)
	a.logger.Info("session janitor started", applogger.Duration("ttl_ms", a.cfg.Transfer.SessionTTL))

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	a.registry.Close()

	a.logger.Info("shutdown complete")
	return nil
}
