// Package cli provides the gagyebu command tree and the initialization it
// shares: configuration, logging, backend bootstrap and shutdown handling.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gagyebu/internal/config"
	"gagyebu/internal/log"
)

// SetupLogger builds the application logger from the log section of the
// configuration and installs it as the slog default.
func SetupLogger(cfg config.LogConfig, out io.Writer) *log.Logger {
	level, err := log.ParseLevel(cfg.Level)
	logger := log.New(log.Config{
		Level:     level,
		Format:    strings.ToLower(cfg.Format),
		Component: log.ComponentApp,
		Output:    out,
	})
	if err != nil {
		logger.Warn("Unknown log level, using info", "level", cfg.Level)
	}
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration from path and validates it.
func LoadAndValidateConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has run.
func GracefulShutdown(parent context.Context, logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
