// Package usecase はユーザーごとの習慣管理を実装します。
package usecase

import "errors"

var (
	// ErrValidation は空の名前などの入力ルール違反を包みます。
	ErrValidation = errors.New("invalid input")

	// ErrHabitNotFound は習慣が存在しないか他のユーザーの所有である場合に返されます。
	ErrHabitNotFound = errors.New("habit not found")
)
