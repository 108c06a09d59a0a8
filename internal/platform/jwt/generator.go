// Package jwtmw は HS256 のアクセストークンを発行し、ルートを保護します。
package jwtmw

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	EnvKeyJWTSecret  = "JWT_SECRET"
	EnvKeyAccessTTL  = "ACCESS_TOKEN_TTL"
	EnvKeyRefreshTTL = "REFRESH_TOKEN_TTL"

	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// ErrMissingSecret は JWT_SECRET 未設定時に LoadConfig が返します。
var ErrMissingSecret = errors.New(EnvKeyJWTSecret + " is not set")

// Config は署名用シークレットとトークンの有効期間を保持します。
type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// LoadConfig は環境変数から JWT 設定を読み込みます。
// TTL は Go の duration 形式("15m")か秒数("900")を受け付けます。
func LoadConfig() (Config, error) {
	cfg := Config{
		Secret:     os.Getenv(EnvKeyJWTSecret),
		AccessTTL:  defaultAccessTTL,
		RefreshTTL: defaultRefreshTTL,
	}
	if cfg.Secret == "" {
		return cfg, ErrMissingSecret
	}
	var err error
	if cfg.AccessTTL, err = durationEnv(EnvKeyAccessTTL, defaultAccessTTL); err != nil {
		return cfg, err
	}
	if cfg.RefreshTTL, err = durationEnv(EnvKeyRefreshTTL, defaultRefreshTTL); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}

// Claims はアクセストークンのペイロードです。Subject にユーザーIDを入れます。
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Generator はアクセストークンに署名します。
type Generator interface {
	GenerateToken(userID uint, username string) (string, error)
}

type generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator は secret で署名し、有効期間 expiration のトークンを発行する Generator を生成します。
func NewGenerator(secret string, expiration time.Duration) Generator {
	return &generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

func (g *generator) GenerateToken(userID uint, username string) (string, error) {
	now := g.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.expiration)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
