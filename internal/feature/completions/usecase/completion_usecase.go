package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"habit_backend/internal/feature/completions/domain/entity"
)

// CompletionRepository はcompletion_recordsの永続化層を抽象化します。
// date は entity.DateLayout 形式。
type CompletionRepository interface {
	HabitOwned(ctx context.Context, owner, habitID uint) (bool, error)
	// Mark は (habitID, date) の記録が無ければ追加します。
	// 習慣が同時に削除されていた場合は ErrHabitNotFound を返します。
	Mark(ctx context.Context, habitID uint, date string) error
	// Unmark は記録があれば削除します。
	Unmark(ctx context.Context, habitID uint, date string) error
	Exists(ctx context.Context, habitID uint, date string) (bool, error)
	CompletedHabitIDs(ctx context.Context, owner uint, date string) ([]uint, error)
}

// StatsInvalidator は更新後にキャッシュ済みの集計を破棄します。
type StatsInvalidator interface {
	Invalidate(ctx context.Context, userID uint) error
}

type completionUsecase struct {
	repo  CompletionRepository
	stats StatsInvalidator
	loc   *time.Location
	now   func() time.Time
}

// NewCompletionUsecase は達成記録のユースケースを生成します。今日の日付は loc で求めます。stats は nil でも構いません。
func NewCompletionUsecase(repo CompletionRepository, stats StatsInvalidator, loc *time.Location) *completionUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &completionUsecase{repo: repo, stats: stats, loc: loc, now: time.Now}
}

// Today は設定されたロケーションでの今日を UTC の0時として返します。
func (u *completionUsecase) Today() time.Time {
	y, m, d := u.now().In(u.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (u *completionUsecase) ensureOwned(ctx context.Context, owner, habitID uint) error {
	ok, err := u.repo.HabitOwned(ctx, owner, habitID)
	if err != nil {
		return fmt.Errorf("check habit owner: %w", err)
	}
	if !ok {
		return ErrHabitNotFound
	}
	return nil
}

// SetCompletion は habitID の date の達成を付け外しします。どちらも冪等です。
func (u *completionUsecase) SetCompletion(ctx context.Context, owner, habitID uint, date time.Time, completed bool) error {
	if err := u.ensureOwned(ctx, owner, habitID); err != nil {
		return err
	}

	key := entity.DateKey(date)
	var err error
	if completed {
		err = u.repo.Mark(ctx, habitID, key)
	} else {
		err = u.repo.Unmark(ctx, habitID, key)
	}
	if err != nil {
		return err
	}

	if u.stats != nil {
		if err := u.stats.Invalidate(ctx, owner); err != nil {
			slog.Warn("failed to invalidate stats cache", "user_id", owner, "error", err)
		}
	}
	return nil
}

func (u *completionUsecase) IsCompleted(ctx context.Context, owner, habitID uint, date time.Time) (bool, error) {
	if err := u.ensureOwned(ctx, owner, habitID); err != nil {
		return false, err
	}
	return u.repo.Exists(ctx, habitID, entity.DateKey(date))
}

// CompletedHabitIDs は owner の習慣のうち date に達成したものを返します。
func (u *completionUsecase) CompletedHabitIDs(ctx context.Context, owner uint, date time.Time) ([]uint, error) {
	return u.repo.CompletedHabitIDs(ctx, owner, entity.DateKey(date))
}
