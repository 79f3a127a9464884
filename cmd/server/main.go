package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"taskboard/config"
	"taskboard/internal/handler"
	"taskboard/internal/httpserver"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	pkgconfig "taskboard/pkg/config"
	"taskboard/pkg/db"
	"taskboard/pkg/logger"
	"taskboard/pkg/mq"
	"taskboard/pkg/otel"
	"taskboard/pkg/redis"
)

func main() {
	env := pkgconfig.GetConfigEnv()
	cfg, err := config.Load(env, pkgconfig.GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	log.Info("Starting taskboard...",
		zap.String("env", env),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("port", cfg.Server.Port),
	)

	shutdownTracing, err := otel.Init(cfg.OTel, log)
	if err != nil {
		log.Fatal("Failed to init OpenTelemetry", zap.Error(err))
	}
	defer shutdownTracing()

	checks := map[string]httpserver.ReadinessCheck{}

	// Storage
	var store repository.TaskStore
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pool, err := db.NewConnection(cfg.DB, log)
		if err != nil {
			log.Fatal("Failed to init DB", zap.Error(err))
		}
		defer pool.Close()

		schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = db.EnsureSchema(schemaCtx, pool, log)
		cancel()
		if err != nil {
			log.Fatal("Failed to prepare schema", zap.Error(err))
		}
		store = repository.NewPostgresTaskRepository(pool, log)
	default:
		log.Warn("Using in-memory storage, data is lost on restart")
		store = repository.NewMemoryTaskRepository(log)
	}

	// Redis 列表缓存（可选）
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewRedisClient(cfg.Redis, log)
		if err != nil {
			log.Warn("Redis unavailable, serving without list cache", zap.Error(err))
		} else {
			defer rdb.Close()
			store = repository.NewCachedTaskRepository(store, rdb, cfg.Redis.CacheTTL, log)
		}
	}

	// MQ 事件发布（可选）
	var publisher service.EventPublisher
	if cfg.MQ.URL != "" {
		p, err := mq.NewPublisher(cfg.MQ, log)
		if err != nil {
			log.Warn("MQ unavailable, task events will not be published", zap.Error(err))
		} else {
			defer p.Close()
			publisher = p
			checks["mq"] = func(context.Context) error {
				if !p.IsConnected() {
					return errors.New("mq connection closed")
				}
				return nil
			}
		}
	}

	taskService := service.NewTaskService(store, publisher, log)
	checks["store"] = taskService.Ping

	if cfg.Seed.Enabled {
		seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, err := taskService.SeedIfEmpty(seedCtx)
		cancel()
		if err != nil {
			log.Fatal("Failed to seed tasks", zap.Error(err))
		}
	}

	// HTTP Server
	taskHandler := handler.NewTaskHandler(taskService, log)
	router := httpserver.NewRouter(taskHandler, log, checks)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down taskboard gracefully...")

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}
}
