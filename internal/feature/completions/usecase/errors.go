// Package usecase は日ごとの習慣の達成を記録・照会します。
package usecase

import "errors"

var (
	// ErrHabitNotFound は習慣が存在しないか呼び出し元の所有でない場合に返されます。
	ErrHabitNotFound = errors.New("habit not found")
)
