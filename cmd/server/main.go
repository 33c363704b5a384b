package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/jobs"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/provider"
	"github.com/shipflow-next/internal/router"
)

func main() {
	cfg := config.Load()
	log := logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer func() { _ = log.Sync() }()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		logger.Errorw("database_init_failed", "error", err)
		os.Exit(1)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Errorw("database_migrate_failed", "error", err)
		os.Exit(1)
	}

	container := provider.Build(cfg, models.DB)
	defer container.Close()

	if err := container.Worker.Start(); err != nil {
		logger.Errorw("worker_start_failed", "error", err)
		os.Exit(1)
	}

	jobManager := jobs.NewManager()
	if container.QueueClient != nil {
		if err := jobManager.RegisterTrackingPoll(cfg.Tracking, container.OrderRepo, container.QueueClient); err != nil {
			logger.Errorw("tracking_poll_register_failed", "error", err)
			os.Exit(1)
		}
	}
	jobManager.Start()
	defer jobManager.Stop()

	engine := router.Setup(cfg, container.AuthSvc, container.Redis, container.Handlers)
	server := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: engine,
	}

	go func() {
		logger.Infow("server_listening", "addr", server.Addr, "mode", cfg.Server.Mode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("server_failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infow("server_shutting_down")

	container.Worker.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorw("server_shutdown_failed", "error", err)
	}
	logger.Infow("server_stopped")
}
