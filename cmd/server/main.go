// Package main runs the event registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventreg/backend/config"
	"github.com/eventreg/backend/internal/middleware"
	"github.com/eventreg/backend/internal/notifications"
	"github.com/eventreg/backend/internal/router"
	"github.com/eventreg/backend/internal/storage"
	"github.com/eventreg/backend/internal/worker"
	"github.com/eventreg/backend/pkg/database"
	"github.com/eventreg/backend/pkg/queue"
	"github.com/eventreg/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	var stores storage.Stores
	switch cfg.Database.Driver {
	case config.DriverMemory:
		stores = storage.NewMemory()
		logger.Warn("using in-memory storage; data is lost on restart")
	default:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool, logger); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		stores = storage.NewPostgres(pool)
	}

	deps := router.Deps{
		Stores:             stores,
		RateLimiter:        middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 10*time.Minute),
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Logger:             logger,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	var workerDone <-chan struct{}

	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("redis disabled: cache and notifications off", zap.Error(err))
		} else {
			defer rdb.Close()
			jobQueue := queue.NewQueue(rdb.Client, logger)
			deps.Redis = rdb.Client
			deps.CacheTTL = time.Duration(cfg.Cache.TTLSeconds) * time.Second
			deps.Notifier = notifications.NewQueueNotifier(jobQueue, logger)

			if cfg.Worker.Inline {
				var sender worker.Sender
				if s := worker.NewSMTPSender(cfg.Email); s != nil {
					sender = s
				}
				processor := worker.NewEmailProcessor(jobQueue, stores.EmailLogs, sender, logger)
				workerDone = processor.Start(workerCtx)
				logger.Info("inline email worker started", zap.Bool("smtp", sender != nil))
			}
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.New(deps),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if workerDone != nil {
		select {
		case <-workerDone:
		case <-shutdownCtx.Done():
			logger.Warn("inline email worker did not stop before shutdown deadline")
		}
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
