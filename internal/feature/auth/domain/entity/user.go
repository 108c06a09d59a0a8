// Package entity は auth 機能のドメインエンティティを定義します。
package entity

import "time"

// User は登録済みアカウントです。習慣と達成記録はユーザーに属します。
type User struct {
	ID uint `gorm:"primaryKey"`

	// Username はログインIDです。全ユーザーで一意。
	Username string `gorm:"uniqueIndex;size:150;not null"`

	// Password はbcryptハッシュ。平文は保存しない。
	Password string `gorm:"size:255;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
