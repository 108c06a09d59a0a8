package entity

import "time"

// Session はリフレッシュトークンのセッションです。ID がクライアントに渡す不透明なトークンです。
type Session struct {
	ID        string     `json:"id"`
	UserID    uint       `json:"user_id"`
	UserAgent string     `json:"user_agent"`
	IPAddress string     `json:"ip_address"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// IsExpired は ExpiresAt を過ぎているかを返します。
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsRevoked は明示的に失効させられたかを返します。
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// IsValid はまだトークンと交換できるかを返します。
func (s *Session) IsValid() bool {
	return !s.IsExpired() && !s.IsRevoked()
}

// ClientMeta はセッションを開いたクライアントの情報です。
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

// TokenPair はログインまたはリフレッシュ成功時の結果です。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn はアクセストークンの有効期間(秒)
	ExpiresIn int64
	User      *User
}
