// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server and the status
// change scheduler.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/seminar-registrations/internal/clock"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/config"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/database"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/handler"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/notify"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/repository"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/scheduler"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres", "host", cfg.Database.Host, "db", cfg.Database.Name)

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	notifier := notify.New(notify.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Warn("close notifier", "error", err)
		}
	}()

	clk := clock.NewSystem()
	eventRepo := repository.NewEventRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool, eventRepo)
	regSvc := service.NewRegistrationService(eventRepo, regRepo, clk,
		service.WithRegistrationLogger(logger))
	statusSvc := service.NewStatusChangeService(eventRepo, regRepo, notifier,
		service.WithStatusLogger(logger))

	var sched *scheduler.Scheduler
	if cfg.StatusChangeSchedule != "" {
		sched, err = scheduler.New(cfg.StatusChangeSchedule, statusSvc, clk, logger)
		if err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		sched.Start()
		logger.Info("status change scheduled", "schedule", cfg.StatusChangeSchedule)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.NewRouter(handler.NewRegistrationHandler(regSvc, logger), logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			logger.Warn("scheduler did not stop in time", "error", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
