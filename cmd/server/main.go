package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"habit_backend/internal/app/di"
	"habit_backend/internal/app/router"
	"habit_backend/internal/config"
	"habit_backend/internal/platform/db"
	jwtmw "habit_backend/internal/platform/jwt"
	"habit_backend/internal/platform/logging"
	platformredis "habit_backend/internal/platform/redis"
	"habit_backend/internal/shared/ratelimiter"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadDotEnv(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.Setup(cfg.LogLevel)

	jwtCfg, err := jwtmw.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load jwt config: %v", err)
	}

	// db
	gdb, err := db.Open(db.LoadConfigFromEnv())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	if err := db.Migrate(gdb, di.Models()...); err != nil {
		log.Fatalf("%v", err)
	}

	// Redis（任意）
	var rdb *redisv9.Client
	if tmp, err := platformredis.NewRedisClient(platformredis.LoadConfig()); err != nil {
		if !errors.Is(err, platformredis.ErrNotConfigured) {
			slog.Warn("Redis unavailable. Running without cache.", "error", err)
		}
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	handlers := di.NewHandlers(di.Deps{DB: gdb, Redis: rdb, JWT: jwtCfg, Config: cfg})
	r := router.NewRouter(handlers, router.Options{
		JWTSecret:          jwtCfg.Secret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AuthLimiter:        ratelimiter.NewRateLimiter(cfg.AuthRateLimit, time.Minute),
		Logger:             logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", cfg.Addr, "timezone", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
