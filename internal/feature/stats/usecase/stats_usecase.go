// Package usecase はユーザーごとの達成集計を提供します。
package usecase

import (
	"context"

	"habit_backend/internal/feature/stats/domain/entity"
)

// StatsRepository は集計を行います。実装は gorm アダプタと Redis キャッシュのデコレータです。
type StatsRepository interface {
	// CompletionCounts は owner の達成記録を習慣名ごとに数え、件数の多い順(同数は名前順)に返します。
	// 達成記録の無い習慣は含みません。
	CompletionCounts(ctx context.Context, owner uint) ([]entity.HabitCount, error)
}

type statsUsecase struct {
	repo StatsRepository
}

// NewStatsUsecase は集計ユースケースを生成します。
func NewStatsUsecase(repo StatsRepository) *statsUsecase {
	return &statsUsecase{repo: repo}
}

func (u *statsUsecase) CompletionCounts(ctx context.Context, owner uint) ([]entity.HabitCount, error) {
	counts, err := u.repo.CompletionCounts(ctx, owner)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []entity.HabitCount{}
	}
	return counts, nil
}
