// Package redis はセッションとキャッシュに使う任意の Redis 接続を開きます。
package redis

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotConfigured は REDIS_HOST 未設定時に返されます。呼び出し側は DB にフォールバックします。
var ErrNotConfigured = errors.New("redis not configured")

// Config は Redis の接続設定です。
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// LoadConfig は環境変数からRedis設定を読み込みます。
func LoadConfig() Config {
	cfg := Config{
		Host:     os.Getenv("REDIS_HOST"),
		Port:     os.Getenv("REDIS_PORT"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
	if cfg.Port == "" {
		cfg.Port = "6379"
	}
	if n, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
		cfg.DB = n
	}
	return cfg
}

// Addr は host:port を返します。
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// NewRedisClient は Redis に接続し、Ping で疎通を確認します。
func NewRedisClient(cfg Config) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, ErrNotConfigured
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", cfg.Addr(), "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", cfg.Addr())
	return rdb, nil
}
