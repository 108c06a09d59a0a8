// Package usecase はユーザー登録・認証・セッション管理を実装します。
package usecase

import "errors"

var (
	// ErrValidation は入力ルール違反(空のユーザー名、短いパスワードなど)を包みます。
	ErrValidation = errors.New("invalid input")

	// ErrUserNotFound は該当ユーザーがいない場合に返されます。
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken は登録済みのユーザー名で登録しようとした場合に返されます。
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidCredentials は未登録のユーザー名と誤ったパスワードの両方を表します。
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionRevoked      = errors.New("session has been revoked")
	ErrSessionExpired      = errors.New("session has expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)
