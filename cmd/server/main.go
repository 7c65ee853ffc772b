// Command clinic-server serves the clinic API over local HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/clinic-keeper/internal/app"
	"github.com/and161185/clinic-keeper/internal/config"
	"github.com/and161185/clinic-keeper/internal/server/httpapi"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, opens storage, bootstraps defaults and serves HTTP
// until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	logger, err := cfg.Logger()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("backend", cfg.Backend),
		zap.String("chairPolicy", cfg.ChairPolicy),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open app", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close storage", zap.Error(err))
		}
	}()
	if err := a.Bootstrap(ctx, logger); err != nil {
		logger.Fatal("bootstrap", zap.Error(err))
	}

	e := httpapi.New(httpapi.Deps{
		Auth:       a.Auth,
		Assignment: a.Assignment,
		Inventory:  a.Inventory,
		Schedule:   a.Schedule,
		Verifier:   a.Sessions,
		Metrics:    a.Metrics,
		Logger:     logger,
	}).Echo()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- e.Start(cfg.HTTPAddr)
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shCtx); err != nil {
			logger.Warn("graceful shutdown", zap.Error(err))
			_ = e.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
