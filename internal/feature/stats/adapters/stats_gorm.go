// Package adapters は gorm で達成集計を行います。
package adapters

import (
	"context"

	"gorm.io/gorm"

	"habit_backend/internal/feature/stats/domain/entity"
	"habit_backend/internal/feature/stats/usecase"
)

type statsGorm struct {
	db *gorm.DB
}

var _ usecase.StatsRepository = (*statsGorm)(nil)

// NewStatsGorm は gorm 実装の StatsRepository を生成します。
func NewStatsGorm(db *gorm.DB) *statsGorm {
	return &statsGorm{db: db}
}

type countRow struct {
	HabitName string
	Total     int64
}

// CompletionCounts は同名のhabitをまとめて集計します(内部結合のため完了0件のhabitは含まれない)。
func (r *statsGorm) CompletionCounts(ctx context.Context, owner uint) ([]entity.HabitCount, error) {
	var rows []countRow
	err := r.db.WithContext(ctx).
		Table("completion_records").
		Select("habits.name AS habit_name, COUNT(completion_records.id) AS total").
		Joins("JOIN habits ON habits.id = completion_records.habit_id").
		Where("habits.user_id = ?", owner).
		Group("habits.name").
		Order("total DESC, habits.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]entity.HabitCount, len(rows))
	for i, row := range rows {
		out[i] = entity.HabitCount{HabitName: row.HabitName, Count: row.Total}
	}
	return out, nil
}
