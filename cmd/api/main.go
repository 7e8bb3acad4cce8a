package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sourcing-backend/internal/bootstrap"
	"sourcing-backend/internal/shared/config"
	"sourcing-backend/internal/shared/server"
	"sourcing-backend/internal/shared/telemetry"
)

const shutdownTimeout = 20 * time.Second

func main() {
	telemetry.SetService("sourcing-api")
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		fatal("api.bootstrap_failed", err)
	}

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("api.started", map[string]any{"addr": srv.Addr, "env": cfg.Env, "store": cfg.ObjectStoreType})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("api.serve_failed", err)
		}
		return
	case <-ctx.Done():
	}

	// in-process report goroutines are not drained; deployments that need
	// durable reports set FEASIBILITY_SQS_QUEUE_URL and run the worker
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Error("api.shutdown_failed", map[string]any{"error": err})
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
	telemetry.Info("api.stopped", nil)
}

func fatal(msg string, err error) {
	telemetry.Error(msg, map[string]any{"error": err})
	os.Exit(1)
}
