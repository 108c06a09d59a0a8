// Package api は HTTP API のリクエスト・レスポンスの JSON を定義します。
package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ErrorResponse は 4xx/5xx のレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse は単純な完了通知です。
type MessageResponse struct {
	Message string `json:"message"`
}

// SignupRequest は POST /signup のボディです。長さの検証はユースケースで行います。
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest は POST /login のボディです。
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest は POST /refresh と POST /logout のボディです。
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse は発行したトークンペアです。
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserResponse は認証済みユーザーです。
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// CreateHabitRequest は POST /habits のボディです。
type CreateHabitRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// HabitResponse は習慣1件です。
type HabitResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SetCompletionRequest は PUT /habits/:id/completions のボディです。
// Date を省略するとサーバーのタイムゾーンでの今日になります。
type SetCompletionRequest struct {
	Date      *openapi_types.Date `json:"date,omitempty"`
	Completed *bool               `json:"completed" binding:"required"`
}

// CompletionResponse はある日の習慣1件の達成状態です。
type CompletionResponse struct {
	HabitID   uint               `json:"habit_id"`
	Date      openapi_types.Date `json:"date"`
	Completed bool               `json:"completed"`
}

// HabitCountResponse は達成グラフの1本です。
type HabitCountResponse struct {
	Habit string `json:"habit"`
	Count int64  `json:"count"`
}

// DashboardHabit は対象日の達成フラグ付きの習慣です。
type DashboardHabit struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// DashboardResponse は GET /dashboard のレスポンスです。
type DashboardResponse struct {
	Date   openapi_types.Date   `json:"date"`
	Habits []DashboardHabit     `json:"habits"`
	Counts []HabitCountResponse `json:"counts"`
}
