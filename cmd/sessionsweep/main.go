// Command sessionsweep は期限切れのリフレッシュセッションを削除します。cron から実行します。
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"habit_backend/internal/app/di"
	"habit_backend/internal/config"
	"habit_backend/internal/platform/db"
	"habit_backend/internal/platform/logging"
	platformredis "habit_backend/internal/platform/redis"
)

func main() {
	config.LoadDotEnv(".env")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logging.Setup(cfg.LogLevel)

	gdb, err := db.Open(db.LoadConfigFromEnv())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	if err := db.Migrate(gdb, di.Models()...); err != nil {
		log.Fatalf("%v", err)
	}

	// Redis が設定されていればサーバーと同じくそちらのセッションを掃除する
	var rdb *redisv9.Client
	if tmp, err := platformredis.NewRedisClient(platformredis.LoadConfig()); err == nil {
		rdb = tmp
		defer rdb.Close()
	} else if !errors.Is(err, platformredis.ErrNotConfigured) {
		log.Fatalf("redis: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := di.NewSessionRepository(rdb, gdb).DeleteExpired(ctx)
	if err != nil {
		log.Fatalf("session sweep failed: %v", err)
	}
	slog.Info("session sweep ok", "deleted", n)
}
