// Package server boots and runs the full service: Mongo, Redis, storage,
// queue workers, scheduler, gRPC health endpoint and the HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/poppys-produce/backend/app/jobs"
	"github.com/poppys-produce/backend/app/routes"
	appsched "github.com/poppys-produce/backend/app/schedule"
	"github.com/poppys-produce/backend/config"
	"github.com/poppys-produce/backend/pkg/cache"
	"github.com/poppys-produce/backend/pkg/database"
	"github.com/poppys-produce/backend/pkg/grpcserver"
	"github.com/poppys-produce/backend/pkg/logger"
	"github.com/poppys-produce/backend/pkg/queue"
	"github.com/poppys-produce/backend/pkg/schedule"
	"github.com/poppys-produce/backend/pkg/storage"
	"github.com/poppys-produce/backend/pkg/ws"
)

const queueWorkers = 4

// Run starts everything and blocks until SIGINT/SIGTERM.
func Run() error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("server: load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Bootstrap(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := database.Disconnect(shutdownCtx); err != nil {
			logger.Error("server: mongo disconnect failed", "error", err)
		}
	}()

	jobs.Register()
	queue.UseCollection(database.DB().Collection("failedJobs"))
	if cache.RDB != nil {
		queue.SetDriver(queue.NewRedisDriver(cache.RDB))
		logger.Info("server: queue using redis driver")
	}
	queue.StartWorkers(ctx, queueWorkers)

	appsched.Register()
	schedule.Start(ctx)

	hub := ws.NewHub()
	go hub.Run()

	r, err := routes.Build(hub)
	if err != nil {
		return fmt.Errorf("server: build routes: %w", err)
	}

	grpcSrv, _, err := grpcserver.Start(config.GRPCPort())
	if err != nil {
		return err
	}
	defer grpcserver.Stop(grpcSrv)

	httpSrv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: http listening", "addr", httpSrv.Addr, "env", config.AppEnv())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: http: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// Bootstrap connects the shared infrastructure: Mongo (required), Redis and
// the storage disks (best-effort), plus the Mongo log sink in production.
// CLI commands that touch the database call this without Run.
func Bootstrap(ctx context.Context) error {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := database.Connect(connectCtx); err != nil {
		return fmt.Errorf("server: mongo connect: %w", err)
	}
	if err := database.EnsureIndexes(connectCtx); err != nil {
		return fmt.Errorf("server: ensure indexes: %w", err)
	}

	if config.AppEnv() == "production" || config.AppEnv() == "prod" {
		stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
		logger.SetHandler(logger.NewMultiHandler(stdout, logger.NewMongoHandler(database.Logs())))
	}

	if err := cache.Connect(); err != nil {
		logger.Warn("server: redis unavailable, cache and redis queue disabled", "error", err)
	}
	storage.Connect()
	return nil
}
