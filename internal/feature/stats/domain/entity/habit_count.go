// Package entity は stats 機能が返す集計を定義します。
package entity

// HabitCount は HabitName が同じ全習慣の達成記録数です。
// json タグは Redis キャッシュ上の表現で、API レスポンスは api.HabitCountResponse が担います。
type HabitCount struct {
	HabitName string `json:"habit_name"`
	Count     int64  `json:"count"`
}
