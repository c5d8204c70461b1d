package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stockdash/portfolio_service/internal/api/routes"
	"github.com/stockdash/portfolio_service/internal/infrastructure/cache"
	"github.com/stockdash/portfolio_service/internal/infrastructure/config"
	"github.com/stockdash/portfolio_service/internal/infrastructure/database"
	"github.com/stockdash/portfolio_service/internal/infrastructure/di"
	"github.com/stockdash/portfolio_service/pkg/logger"
	"github.com/stockdash/portfolio_service/pkg/tracing"
	"github.com/stockdash/portfolio_service/pkg/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer log.Sync()

	shutdownTracing, err := tracing.InitProvider(context.Background(), tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Environment,
		Version:     version.Version,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatal("Failed to initialize tracing", "error", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db, cfg.Database.MigrationsPath, log.Zap()); err != nil {
			log.Fatal("Failed to run migrations", "error", err)
		}
	}

	// The analytics cache is optional; without it every read recomputes
	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Warnw("Redis unavailable, analytics cache and shared rate limits disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	container, err := di.NewContainer(cfg, db, redisClient, log)
	if err != nil {
		log.Fatal("Failed to create DI container", "error", err)
	}

	router := routes.SetupRoutes(container)

	if container.Scheduler != nil {
		if err := container.Scheduler.Start(); err != nil {
			log.Fatal("Failed to start analytics scheduler", "error", err)
		}
	}

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Infow("Starting server",
			"addr", server.Addr,
			"environment", cfg.Environment,
			"version", version.Get().String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("Shutting down server")

	if container.Scheduler != nil {
		container.Scheduler.Stop()
	}

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorw("Server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Warnw("Failed to flush traces", "error", err)
	}

	log.Infow("Server exited")
}
