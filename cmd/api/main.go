package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/registro-museografico/museum-registry/config"
	"github.com/registro-museografico/museum-registry/internal/bootstrap"
	"github.com/registro-museografico/museum-registry/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.Init(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{URL: cfg.Redis.URL})
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	app, err := bootstrap.NewApp(cfg, rdb)
	if err != nil {
		logger.Fatal("bootstrap", zap.Error(err))
	}
	if !app.Images.Configured() {
		logger.Warn("image host credentials missing; uploads will answer 503")
	}

	if err := app.Sweeper.Start(); err != nil {
		logger.Fatal("sweeper", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("service", cfg.App.ServiceName),
			zap.String("version", cfg.App.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	app.Sweeper.Stop(shutdownCtx)
}
