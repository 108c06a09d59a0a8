package di

import (
	authadapters "habit_backend/internal/feature/auth/adapters"
	authentity "habit_backend/internal/feature/auth/domain/entity"
	completionadapters "habit_backend/internal/feature/completions/adapters"
	habitadapters "habit_backend/internal/feature/habits/adapters"
)

// Models は全 gorm モデルを親から順に返します。
// 外部キーがあるので必ず同じ Migrate 呼び出しに渡す。
func Models() []any {
	return []any{
		&authentity.User{},
		&authadapters.SessionModel{},
		&habitadapters.HabitModel{},
		&completionadapters.CompletionModel{},
	}
}
