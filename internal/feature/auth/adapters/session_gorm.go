package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"habit_backend/internal/feature/auth/domain/entity"
	"habit_backend/internal/feature/auth/usecase"
)

// sessionGorm はリフレッシュセッションを RDB に保存します。
type sessionGorm struct {
	db  *gorm.DB
	now func() time.Time
}

var _ usecase.SessionRepository = (*sessionGorm)(nil)

// NewSessionGorm は gorm 実装の SessionRepository を生成します。
func NewSessionGorm(db *gorm.DB) *sessionGorm {
	return &sessionGorm{db: db, now: time.Now}
}

func (r *sessionGorm) active(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, r.now())
}

func (r *sessionGorm) Create(ctx context.Context, session *entity.Session) error {
	return r.db.WithContext(ctx).Create(sessionRow(session)).Error
}

func (r *sessionGorm) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	var m SessionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}
	return m.toEntity(), nil
}

func (r *sessionGorm) FindByUserID(ctx context.Context, userID uint) ([]*entity.Session, error) {
	var rows []SessionModel
	if err := r.active(ctx, userID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.Session, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out, nil
}

// Revoke は未失効のセッションだけを失効させます(比較更新)。
func (r *sessionGorm) Revoke(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", r.now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&SessionModel{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return usecase.ErrSessionNotFound
	}
	return usecase.ErrSessionRevoked
}

func (r *sessionGorm) RevokeAllByUserID(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", r.now()).Error
}

// DeleteExpired は失効の有無にかかわらず期限切れのセッションを削除します。
func (r *sessionGorm) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", r.now()).Delete(&SessionModel{})
	return res.RowsAffected, res.Error
}

func (r *sessionGorm) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.active(ctx, userID).Count(&n).Error
	return n, err
}

func (r *sessionGorm) DeleteOldestByUserID(ctx context.Context, userID uint) error {
	var oldest SessionModel
	if err := r.active(ctx, userID).Order("created_at ASC").First(&oldest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return r.db.WithContext(ctx).Delete(&SessionModel{}, "id = ?", oldest.ID).Error
}
