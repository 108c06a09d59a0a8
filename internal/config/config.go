// Package config は環境変数からアプリケーション設定を読み込みます。
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	defaultAddr               = ":8080"
	defaultTimezone           = "America/Sao_Paulo"
	defaultStatsCacheTTL      = 5 * time.Minute
	defaultAuthRateLimit      = 10
	defaultMaxSessionsPerUser = 5
)

// Config は特定の platform パッケージに属さない設定を保持します。
type Config struct {
	Addr               string
	Location           *time.Location // calendar "today" is computed in this zone
	LogLevel           string
	CORSAllowedOrigins []string
	StatsCacheTTL      time.Duration
	AuthRateLimit      int // login/signup attempts per minute per client IP
	MaxSessionsPerUser int
}

// LoadDotEnv は .env があれば読み込みます。ファイルが無くてもエラーにはしません。
func LoadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil {
		slog.Info(".env not found; using system environment variables", "path", path)
	}
}

// Load は環境変数からアプリケーション設定を読み込みます。
func Load() (Config, error) {
	cfg := Config{
		Addr:               getenv("HTTP_ADDR", defaultAddr),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		StatsCacheTTL:      defaultStatsCacheTTL,
		AuthRateLimit:      defaultAuthRateLimit,
		MaxSessionsPerUser: defaultMaxSessionsPerUser,
	}

	loc, err := time.LoadLocation(getenv("APP_TIMEZONE", defaultTimezone))
	if err != nil {
		return Config{}, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if v := os.Getenv("STATS_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid STATS_CACHE_TTL: %w", err)
		}
		cfg.StatsCacheTTL = d
	}
	if cfg.AuthRateLimit, err = getint("AUTH_RATE_LIMIT", defaultAuthRateLimit); err != nil {
		return Config{}, err
	}
	if cfg.MaxSessionsPerUser, err = getint("MAX_SESSIONS_PER_USER", defaultMaxSessionsPerUser); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
