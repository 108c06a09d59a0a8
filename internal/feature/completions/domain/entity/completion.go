// Package entity は completions 機能のドメインエンティティを定義します。
package entity

import "time"

// DateLayout は日付の保存形式です。
const DateLayout = "2006-01-02"

// CompletionRecord は習慣が Date に達成されたことを表します。習慣と日付ごとに高々1件です。
type CompletionRecord struct {
	ID        uint
	HabitID   uint
	Date      string
	CreatedAt time.Time
}

// DateKey は t の時刻とタイムゾーンを無視して日付部分を文字列にします。
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
