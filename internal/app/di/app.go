// Package di はリポジトリ・ユースケース・ハンドラを組み立てます。
package di

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"habit_backend/internal/app/router"
	"habit_backend/internal/config"
	authadapters "habit_backend/internal/feature/auth/adapters"
	authhandler "habit_backend/internal/feature/auth/transport/handler"
	authusecase "habit_backend/internal/feature/auth/usecase"
	completionadapters "habit_backend/internal/feature/completions/adapters"
	completionhandler "habit_backend/internal/feature/completions/transport/handler"
	completionusecase "habit_backend/internal/feature/completions/usecase"
	dashboardhandler "habit_backend/internal/feature/dashboard/transport/handler"
	dashboardusecase "habit_backend/internal/feature/dashboard/usecase"
	habitadapters "habit_backend/internal/feature/habits/adapters"
	habithandler "habit_backend/internal/feature/habits/transport/handler"
	habitusecase "habit_backend/internal/feature/habits/usecase"
	statsadapters "habit_backend/internal/feature/stats/adapters"
	statshandler "habit_backend/internal/feature/stats/transport/handler"
	statsusecase "habit_backend/internal/feature/stats/usecase"
	"habit_backend/internal/platform/cache"
	platformhandler "habit_backend/internal/platform/http/handler"
	jwtmw "habit_backend/internal/platform/jwt"
)

// statsCacheNamespace はRedis上の集計キャッシュキーの接頭辞です。
const statsCacheNamespace = "stats"

// Deps は接続済みのクライアントと読み込んだ設定です。Redis は nil でも構いません。
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	JWT    jwtmw.Config
	Config config.Config
}

// NewHandlers はルーターが必要とするハンドラ一式を生成します。
func NewHandlers(d Deps) router.Handlers {
	// Repository
	userRepo := authadapters.NewUserGorm(d.DB)
	sessionRepo := NewSessionRepository(d.Redis, d.DB)
	habitRepo := habitadapters.NewHabitGorm(d.DB)
	completionRepo := completionadapters.NewCompletionGorm(d.DB)
	// Redisキャッシュでラップ。Redis が無ければ素通し
	statsRepo := cache.NewCachingStatsRepository(d.Redis, d.Config.StatsCacheTTL, statsadapters.NewStatsGorm(d.DB), statsCacheNamespace)

	// Usecase
	authUC := authusecase.NewAuthUsecase(userRepo, sessionRepo,
		jwtmw.NewGenerator(d.JWT.Secret, d.JWT.AccessTTL),
		authusecase.Options{
			AccessTTL:          d.JWT.AccessTTL,
			RefreshTTL:         d.JWT.RefreshTTL,
			MaxSessionsPerUser: d.Config.MaxSessionsPerUser,
		})
	habitUC := habitusecase.NewHabitUsecase(habitRepo, statsRepo)
	completionUC := completionusecase.NewCompletionUsecase(completionRepo, statsRepo, d.Config.Location)
	statsUC := statsusecase.NewStatsUsecase(statsRepo)
	dashboardUC := dashboardusecase.NewDashboardUsecase(habitUC, completionUC, statsUC)

	return router.Handlers{
		Health:      platformhandler.NewHealthHandler(healthChecks(d)),
		Auth:        authhandler.NewAuthHandler(authUC),
		Habits:      habithandler.NewHabitHandler(habitUC),
		Completions: completionhandler.NewCompletionHandler(completionUC),
		Stats:       statshandler.NewStatsHandler(statsUC),
		Dashboard:   dashboardhandler.NewDashboardHandler(dashboardUC),
	}
}

func healthChecks(d Deps) map[string]platformhandler.Checker {
	checks := map[string]platformhandler.Checker{
		"database": platformhandler.CheckFunc(func(ctx context.Context) error {
			sqlDB, err := d.DB.DB()
			if err != nil {
				return fmt.Errorf("get sql.DB: %w", err)
			}
			return sqlDB.PingContext(ctx)
		}),
	}
	if d.Redis != nil {
		checks["redis"] = platformhandler.CheckFunc(func(ctx context.Context) error {
			return d.Redis.Ping(ctx).Err()
		})
	}
	return checks
}
