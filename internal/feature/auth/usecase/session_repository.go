package usecase

import (
	"context"

	"habit_backend/internal/feature/auth/domain/entity"
)

// SessionRepository はリフレッシュセッションを保存します。
// 実装は gorm アダプタと platform/session(Redis)です。
type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error

	// FindByID は不明なトークンに ErrSessionNotFound を返します。
	FindByID(ctx context.Context, id string) (*entity.Session, error)

	// FindByUserID はユーザーの有効なセッションを古い順に返します。
	FindByUserID(ctx context.Context, userID uint) ([]*entity.Session, error)

	// Revoke は不明なトークンに ErrSessionNotFound、失効済みに ErrSessionRevoked を返します。
	// 同時に呼ばれても成功するのは1件だけです。
	Revoke(ctx context.Context, id string) error

	RevokeAllByUserID(ctx context.Context, userID uint) error

	// DeleteExpired は削除したセッション数を返します。
	DeleteExpired(ctx context.Context) (int64, error)

	// CountByUserID は有効な(未失効かつ期限内の)セッション数を返します。
	CountByUserID(ctx context.Context, userID uint) (int64, error)

	DeleteOldestByUserID(ctx context.Context, userID uint) error
}
