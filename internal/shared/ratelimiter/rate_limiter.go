// Package ratelimiter はクライアントIP単位のリクエスト頻度制限を提供します。
package ratelimiter

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"habit_backend/internal/api"
)

// idleTTL を過ぎて使われていないキーは次の掃除で捨てる。
const idleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter はキー（クライアントIP）ごとにトークンバケットを保持します。
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter は interval あたり limit 回まで許可するRateLimiterを生成します。
// バーストも limit 回まで許可します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(interval / time.Duration(limit)),
		burst:    limit,
		now:      time.Now,
	}
}

// Allow はキーに対して1回分のトークンを消費できるかを返します。
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweepLocked(now)

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < idleTTL {
		return
	}
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) >= idleTTL {
			delete(rl.visitors, key)
		}
	}
	rl.lastSweep = now
}

// Len は保持しているキー数を返します。
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Middleware はクライアントIPをキーに制限し、超過時は 429 を返すginミドルウェアです。
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.ClientIP())
		if key == "" {
			key = "unknown"
		}
		if !rl.Allow(key) {
			slog.Warn("rate limit exceeded", "path", c.FullPath(), "remote_addr", key)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Error: "too many requests"})
			return
		}
		c.Next()
	}
}
