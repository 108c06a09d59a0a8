// Package adapters は達成記録の gorm リポジトリを提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"habit_backend/internal/feature/completions/usecase"
	habitadapters "habit_backend/internal/feature/habits/adapters"
)

// CompletionModel は completion_records テーブルの行です。(habit_id, date) は一意です。
type CompletionModel struct {
	ID        uint                      `gorm:"primaryKey"`
	HabitID   uint                      `gorm:"not null;uniqueIndex:idx_completion_habit_date"`
	Habit     *habitadapters.HabitModel `gorm:"foreignKey:HabitID;constraint:OnDelete:CASCADE"`
	Date      string                    `gorm:"size:10;not null;uniqueIndex:idx_completion_habit_date"`
	CreatedAt time.Time
}

func (CompletionModel) TableName() string { return "completion_records" }

type completionGorm struct {
	db *gorm.DB
}

var _ usecase.CompletionRepository = (*completionGorm)(nil)

// NewCompletionGorm は gorm 実装の CompletionRepository を生成します。
func NewCompletionGorm(db *gorm.DB) *completionGorm {
	return &completionGorm{db: db}
}

func (r *completionGorm) HabitOwned(ctx context.Context, owner, habitID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&habitadapters.HabitModel{}).
		Where("id = ? AND user_id = ?", habitID, owner).
		Count(&n).Error
	return n > 0, err
}

func (r *completionGorm) Mark(ctx context.Context, habitID uint, date string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "habit_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		Create(&CompletionModel{HabitID: habitID, Date: date}).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return usecase.ErrHabitNotFound
	}
	return err
}

func (r *completionGorm) Unmark(ctx context.Context, habitID uint, date string) error {
	return r.db.WithContext(ctx).
		Where("habit_id = ? AND date = ?", habitID, date).
		Delete(&CompletionModel{}).Error
}

func (r *completionGorm) Exists(ctx context.Context, habitID uint, date string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&CompletionModel{}).
		Where("habit_id = ? AND date = ?", habitID, date).
		Count(&n).Error
	return n > 0, err
}

func (r *completionGorm) CompletedHabitIDs(ctx context.Context, owner uint, date string) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).
		Model(&CompletionModel{}).
		Joins("JOIN habits ON habits.id = completion_records.habit_id").
		Where("habits.user_id = ? AND completion_records.date = ?", owner, date).
		Order("completion_records.habit_id").
		Pluck("completion_records.habit_id", &ids).Error
	return ids, err
}
