// Package adapters はauthフィーチャーのgormリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"habit_backend/internal/feature/auth/domain/entity"
	"habit_backend/internal/feature/auth/usecase"
	"habit_backend/internal/platform/db"
)

type userGorm struct {
	db *gorm.DB
}

var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は UserRepository の gorm 実装を生成します。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create はユーザーを登録します。ユーザー名が重複する場合は usecase.ErrUsernameTaken を返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return usecase.ErrUsernameTaken
		}
		return err
	}
	return nil
}

func (r *userGorm) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userGorm) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userGorm) first(ctx context.Context, query string, arg any) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
