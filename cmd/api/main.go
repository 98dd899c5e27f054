// Command api runs the SEDCat HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"sedcat-backend/internal/config"
	"sedcat-backend/internal/di"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.NewContainer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	logger := container.Logger
	cfg := container.Config

	// Hot reload is a development convenience; in production the watcher is
	// inert and only holds the initial snapshot.
	watcher, err := config.NewWatcher(cfg, logger.Named("config"))
	if err != nil {
		logger.Warn("Config watcher disabled", zap.Error(err))
	} else {
		defer watcher.Stop()
		watcher.OnReload(func(next *config.Config) {
			logger.Info("Configuration reloaded; restart to apply server settings",
				zap.Strings("sources", next.LoadedFrom),
			)
		})
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      container.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("addr", addr),
			zap.String("environment", string(cfg.Environment)),
			zap.Strings("catalogs", container.Registry.Variants()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error("Container shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}
