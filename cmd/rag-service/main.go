package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/upb/rag-service/app"
	"github.com/upb/rag-service/config"
	"github.com/upb/rag-service/internal/observability"
	"github.com/upb/rag-service/routes"
	"github.com/upb/rag-service/services"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rag-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := initLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New(ctx)
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return err
	}

	logger.Info("starting rag service",
		zap.String("environment", cfg.Environment),
		zap.String("completion_url", cfg.Completion.URL()),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("model_path", cfg.Embedding.Model),
		zap.String("data_path", cfg.Index.DataPath))

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		if errors.Is(err, services.ErrModelUnavailable) {
			logger.Error("embedding server unreachable",
				zap.String("provider", cfg.Embedding.Provider),
				zap.String("base_url", cfg.Embedding.BaseURL),
				zap.Error(err))
		} else {
			logger.Error("failed to initialize dependencies", zap.Error(err))
		}
		return err
	}
	defer func() { _ = deps.Close(context.Background()) }()

	srv := newServer(cfg, routes.SetupRoutes(deps))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", zap.Error(err))
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

// initLogger builds the process logger from LOG_LEVEL and LOG_FORMAT. It runs
// before config.New so configuration errors are logged too.
func initLogger() (*zap.Logger, error) {
	return observability.NewLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

func newServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
