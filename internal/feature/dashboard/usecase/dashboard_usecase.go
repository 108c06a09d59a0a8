// Package usecase は1日分の概要(各習慣の達成有無と達成グラフ)を組み立てます。
package usecase

import (
	"context"
	"fmt"
	"time"

	habitentity "habit_backend/internal/feature/habits/domain/entity"
	statsentity "habit_backend/internal/feature/stats/domain/entity"
)

type HabitLister interface {
	ListHabits(ctx context.Context, owner uint) ([]habitentity.Habit, error)
}

type CompletionReader interface {
	CompletedHabitIDs(ctx context.Context, owner uint, date time.Time) ([]uint, error)
	Today() time.Time
}

type StatsReader interface {
	CompletionCounts(ctx context.Context, owner uint) ([]statsentity.HabitCount, error)
}

// HabitStatus はダッシュボードの一覧の1行です。
type HabitStatus struct {
	ID        uint
	Name      string
	Completed bool
}

// Dashboard は1日分の概要です。
type Dashboard struct {
	Date   time.Time
	Habits []HabitStatus
	Counts []statsentity.HabitCount
}

type dashboardUsecase struct {
	habits      HabitLister
	completions CompletionReader
	stats       StatsReader
}

// NewDashboardUsecase はダッシュボードのユースケースを生成します。
func NewDashboardUsecase(habits HabitLister, completions CompletionReader, stats StatsReader) *dashboardUsecase {
	return &dashboardUsecase{habits: habits, completions: completions, stats: stats}
}

func (u *dashboardUsecase) Today() time.Time {
	return u.completions.Today()
}

// Day は owner の date のダッシュボードを組み立てます。習慣の順序は ListHabits のままです。
func (u *dashboardUsecase) Day(ctx context.Context, owner uint, date time.Time) (*Dashboard, error) {
	habits, err := u.habits.ListHabits(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	done, err := u.completions.CompletedHabitIDs(ctx, owner, date)
	if err != nil {
		return nil, fmt.Errorf("completed habits: %w", err)
	}
	counts, err := u.stats.CompletionCounts(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("completion counts: %w", err)
	}

	completed := make(map[uint]struct{}, len(done))
	for _, id := range done {
		completed[id] = struct{}{}
	}

	d := &Dashboard{
		Date:   date,
		Habits: make([]HabitStatus, 0, len(habits)),
		Counts: counts,
	}
	for _, h := range habits {
		_, ok := completed[h.ID]
		d.Habits = append(d.Habits, HabitStatus{ID: h.ID, Name: h.Name, Completed: ok})
	}
	return d, nil
}
