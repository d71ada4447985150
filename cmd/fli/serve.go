package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"fli.dev/internal/logging"
	"fli.dev/internal/restapi"
)

const shutdownTimeout = 10 * time.Second

func serveCommand(ctx context.Context, env *cliEnv, args []string) error {
	flags := env.newFlagSet("serve")
	positional, err := parseArgs(flags, args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("usage: fli serve [flags]")
	}

	level, err := logging.ParseLevel(env.cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.NewStructuredLogger(os.Stdout, level)

	application, err := env.application(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logging.LogError(logger, "application_close_failed", err)
		}
	}()

	api := restapi.NewRestAPI(application)
	defer api.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", env.cfg.Port),
		Handler:      api.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: env.cfg.HTTPTimeout + 10*time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	return listenAndServe(ctx, srv, logger)
}

// listenAndServe runs srv until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func listenAndServe(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received, shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped cleanly")
	return nil
}
