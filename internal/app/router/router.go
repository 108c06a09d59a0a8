// Package router はHTTPルーティングを組み立てます。
package router

import (
	"log/slog"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	authhandler "habit_backend/internal/feature/auth/transport/handler"
	completionhandler "habit_backend/internal/feature/completions/transport/handler"
	dashboardhandler "habit_backend/internal/feature/dashboard/transport/handler"
	habithandler "habit_backend/internal/feature/habits/transport/handler"
	statshandler "habit_backend/internal/feature/stats/transport/handler"
	platformhandler "habit_backend/internal/platform/http/handler"
	"habit_backend/internal/platform/http/middleware"
	jwtmw "habit_backend/internal/platform/jwt"
	"habit_backend/internal/shared/ratelimiter"
)

// Handlers はルーターに登録するハンドラー一式です。
type Handlers struct {
	Health      *platformhandler.HealthHandler
	Auth        *authhandler.AuthHandler
	Habits      *habithandler.HabitHandler
	Completions *completionhandler.CompletionHandler
	Stats       *statshandler.StatsHandler
	Dashboard   *dashboardhandler.DashboardHandler
}

// Options はルーター全体の設定です。
type Options struct {
	JWTSecret          string
	CORSAllowedOrigins []string
	// AuthLimiter は /signup と /login に掛ける。nil なら制限しない
	AuthLimiter *ratelimiter.RateLimiter
	Logger      *slog.Logger
}

// NewRouter は全ルートを登録した gin.Engine を生成します。
func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(opts.Logger))

	// CORS はブラウザクライアント向け。未設定なら付けない
	if len(opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(corsConfig(opts.CORSAllowedOrigins)))
	}

	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if opts.AuthLimiter != nil {
		limit = opts.AuthLimiter.Middleware()
	}

	// 認証不要
	// 導通確認用
	r.GET("/healthz", h.Health.Handle)
	r.HEAD("/healthz", h.Health.Handle)
	r.OPTIONS("/healthz", h.Health.Handle)
	// 新規ユーザー登録
	r.POST("/signup", limit, h.Auth.Signup)
	// ログイン（JWT + リフレッシュトークン発行）
	r.POST("/login", limit, h.Auth.Login)
	r.POST("/refresh", h.Auth.Refresh)
	r.POST("/logout", h.Auth.Logout)

	// 認証必須のルート
	// → リクエストヘッダーに JWT が必要になる
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired(opts.JWTSecret))
	{
		auth.GET("/me", h.Auth.Me)
		auth.POST("/logout/all", h.Auth.LogoutAll)

		auth.GET("/habits", h.Habits.List)
		auth.POST("/habits", h.Habits.Create)
		auth.DELETE("/habits/:id", h.Habits.Delete)

		auth.GET("/habits/:id/completions", h.Completions.Get)
		auth.PUT("/habits/:id/completions", h.Completions.Put)

		auth.GET("/stats/completions", h.Stats.CompletionCounts)
		auth.GET("/dashboard", h.Dashboard.Get)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
