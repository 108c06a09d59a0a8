package adapters

import (
	"time"

	authentity "habit_backend/internal/feature/auth/domain/entity"
	"habit_backend/internal/feature/habits/domain/entity"
)

// HabitModel は habits テーブルの行です。
type HabitModel struct {
	ID        uint             `gorm:"primaryKey"`
	UserID    uint             `gorm:"index;not null"`
	User      *authentity.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Name      string           `gorm:"size:200;not null"`
	CreatedAt time.Time
}

func (HabitModel) TableName() string { return "habits" }

func (m *HabitModel) toEntity() entity.Habit {
	return entity.Habit{ID: m.ID, UserID: m.UserID, Name: m.Name, CreatedAt: m.CreatedAt}
}
