package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"habit_backend/internal/feature/habits/domain/entity"
)

// maxNameLength はhabitsテーブルのカラム長と一致させる
const maxNameLength = 200

// HabitRepository はhabitの永続化層を抽象化します。
type HabitRepository interface {
	Create(ctx context.Context, habit *entity.Habit) error
	// ListByUser は owner の習慣を名前順(同名は id 順)に返します。
	ListByUser(ctx context.Context, owner uint) ([]entity.Habit, error)
	// DeleteOwned は習慣と達成記録を1トランザクションで削除します。
	// owner の習慣に該当 id が無ければ ErrHabitNotFound を返します。
	DeleteOwned(ctx context.Context, owner, habitID uint) error
}

// StatsInvalidator は更新後にキャッシュ済みの集計を破棄します。
type StatsInvalidator interface {
	Invalidate(ctx context.Context, userID uint) error
}

type habitUsecase struct {
	repo  HabitRepository
	stats StatsInvalidator
}

// NewHabitUsecase は習慣のユースケースを生成します。stats は nil でも構いません。
func NewHabitUsecase(repo HabitRepository, stats StatsInvalidator) *habitUsecase {
	return &habitUsecase{repo: repo, stats: stats}
}

// AddHabit は前後の空白を除いた名前で習慣を追加します。
func (u *habitUsecase) AddHabit(ctx context.Context, owner uint, name string) (*entity.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: habit name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, fmt.Errorf("%w: habit name must be at most %d characters", ErrValidation, maxNameLength)
	}

	h := &entity.Habit{UserID: owner, Name: name}
	if err := u.repo.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	u.invalidate(ctx, owner)
	return h, nil
}

func (u *habitUsecase) ListHabits(ctx context.Context, owner uint) ([]entity.Habit, error) {
	return u.repo.ListByUser(ctx, owner)
}

func (u *habitUsecase) DeleteHabit(ctx context.Context, owner, habitID uint) error {
	if err := u.repo.DeleteOwned(ctx, owner, habitID); err != nil {
		return err
	}
	u.invalidate(ctx, owner)
	return nil
}

// invalidate はキャッシュ削除の失敗をログに残すだけで、更新自体は成功扱いにする
func (u *habitUsecase) invalidate(ctx context.Context, owner uint) {
	if u.stats == nil {
		return
	}
	if err := u.stats.Invalidate(ctx, owner); err != nil {
		slog.Warn("failed to invalidate stats cache", "user_id", owner, "error", err)
	}
}
