// Package adapters は習慣の gorm リポジトリを提供します。
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"habit_backend/internal/feature/habits/domain/entity"
	"habit_backend/internal/feature/habits/usecase"
)

// completionsTable は completions 機能のテーブルです。ここでは連鎖削除でだけ触ります。
const completionsTable = "completion_records"

type habitGorm struct {
	db *gorm.DB
}

var _ usecase.HabitRepository = (*habitGorm)(nil)

// NewHabitGorm は gorm 実装の HabitRepository を生成します。
func NewHabitGorm(db *gorm.DB) *habitGorm {
	return &habitGorm{db: db}
}

func (r *habitGorm) Create(ctx context.Context, h *entity.Habit) error {
	m := HabitModel{UserID: h.UserID, Name: h.Name}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*h = m.toEntity()
	return nil
}

func (r *habitGorm) ListByUser(ctx context.Context, owner uint) ([]entity.Habit, error) {
	var rows []HabitModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Order("name ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	habits := make([]entity.Habit, len(rows))
	for i := range rows {
		habits[i] = rows[i].toEntity()
	}
	return habits, nil
}

// DeleteOwned は習慣の達成記録を削除してから習慣を削除します。
func (r *habitGorm) DeleteOwned(ctx context.Context, owner, habitID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m HabitModel
		if err := tx.Select("id").Where("id = ? AND user_id = ?", habitID, owner).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return usecase.ErrHabitNotFound
			}
			return err
		}
		if err := tx.Exec("DELETE FROM "+completionsTable+" WHERE habit_id = ?", m.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&HabitModel{}, m.ID).Error
	})
}
