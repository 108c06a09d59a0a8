package adapters

import (
	"time"

	"habit_backend/internal/feature/auth/domain/entity"
)

// SessionModel は sessions テーブルの行です。ユーザー削除時に一緒に消えます。
type SessionModel struct {
	ID        string       `gorm:"primaryKey;size:64"`
	UserID    uint         `gorm:"index;not null"`
	User      *entity.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	UserAgent string       `gorm:"size:512"`
	IPAddress string       `gorm:"size:45"` // IPv6 max length
	CreatedAt time.Time    `gorm:"not null"`
	ExpiresAt time.Time    `gorm:"index;not null"`
	RevokedAt *time.Time   `gorm:"index"`
}

func (SessionModel) TableName() string { return "sessions" }

func (m *SessionModel) toEntity() *entity.Session {
	return &entity.Session{
		ID:        m.ID,
		UserID:    m.UserID,
		UserAgent: m.UserAgent,
		IPAddress: m.IPAddress,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
		RevokedAt: m.RevokedAt,
	}
}

func sessionRow(s *entity.Session) *SessionModel {
	return &SessionModel{
		ID:        s.ID,
		UserID:    s.UserID,
		UserAgent: s.UserAgent,
		IPAddress: s.IPAddress,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		RevokedAt: s.RevokedAt,
	}
}
