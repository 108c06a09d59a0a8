package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "habit_backend/internal/feature/auth/adapters"
	"habit_backend/internal/feature/auth/usecase"
	"habit_backend/internal/platform/session"
)

// sessionKeyPrefix はRedis上のリフレッシュセッションキーの接頭辞です。
const sessionKeyPrefix = "session"

// NewSessionRepository は SessionRepository の実装を生成します。
// Redis が使える場合は Redis 実装を返し、
// それ以外は RDB 実装にフォールバックします。
func NewSessionRepository(rdb *redis.Client, db *gorm.DB) usecase.SessionRepository {
	if rdb != nil {
		return session.NewSessionRedis(rdb, sessionKeyPrefix)
	}
	return authadapters.NewSessionGorm(db)
}
