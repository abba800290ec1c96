// Command server runs the pgdeck backend: the browser operations over HTTP and
// WebSocket, plus the activity feed.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pgdeck/internal/api"
	"pgdeck/internal/browser"
	"pgdeck/internal/config"
	"pgdeck/internal/driver"
	"pgdeck/internal/hub"
	"pgdeck/internal/worker"
)

var version = "dev"

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting pgdeck server",
		"version", version,
		"env", cfg.AppEnv,
		"read_only", cfg.ReadOnly,
		"signed_requests", cfg.APISecret != "",
	)

	svc := browser.New(driver.NewOpener(logger), logger, browser.Options{
		ReadOnly:              cfg.ReadOnly,
		QualifiedColumnLookup: cfg.QualifiedColumnLookup,
	})

	h := hub.NewHub(logger)
	pool := worker.NewPool(cfg.WorkerCount, cfg.QueueSize, cfg.MaxDBConcurrency, logger)
	pool.SetObserver(api.ObserveInvocations(h))
	pool.Start()

	handler := api.NewHandler(svc, pool, h, cfg.AllowedOrigins, logger)
	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		AppEnv:         cfg.AppEnv,
		APISecret:      cfg.APISecret,
	}, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		h.Run(egctx)
		return nil
	})

	eg.Go(func() error {
		logger.Info("Server listening", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("Shutting down")
		err := srv.Shutdown(shutdownCtx)
		pool.Stop()
		svc.Wait()
		return err
	})

	return eg.Wait()
}
