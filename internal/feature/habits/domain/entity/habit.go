// Package entity は habits 機能のドメインエンティティを定義します。
package entity

import "time"

// Habit はユーザーが持つ名前付きの習慣です。
// 名前は一意ではなく、作成後は変わりません。
type Habit struct {
	ID        uint
	UserID    uint
	Name      string
	CreatedAt time.Time
}
