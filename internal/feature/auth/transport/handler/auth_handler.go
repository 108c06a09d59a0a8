// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"habit_backend/internal/api"
	"habit_backend/internal/feature/auth/domain/entity"
	"habit_backend/internal/feature/auth/usecase"
	jwtmw "habit_backend/internal/platform/jwt"
)

// AuthUsecase は認証操作のユースケースを定義します。
type AuthUsecase interface {
	Register(ctx context.Context, username, password string) (*entity.User, error)
	Login(ctx context.Context, username, password string, meta entity.ClientMeta) (*entity.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string, meta entity.ClientMeta) (*entity.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID uint) error
	Me(ctx context.Context, userID uint) (*entity.User, error)
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler は AuthHandler を生成します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func clientMeta(c *gin.Context) entity.ClientMeta {
	return entity.ClientMeta{UserAgent: c.Request.UserAgent(), IPAddress: c.ClientIP()}
}

func tokenResponse(p *entity.TokenPair) api.TokenResponse {
	return api.TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    p.ExpiresIn,
	}
}

// Signup はユーザー登録を処理します。
// - バリデーションエラー: 400
// - ユーザー名重複: 409
// - 成功: 201
func (h *AuthHandler) Signup(c *gin.Context) {
	var req api.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrValidation):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, usecase.ErrUsernameTaken):
		slog.Warn("signup failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "username already exists"})
		return
	default:
		slog.Error("signup failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}

	slog.Info("user signup successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, api.UserResponse{ID: user.ID, Username: user.Username})
}

// Login は認証に成功するとアクセストークンとリフレッシュトークンを返します。
// 失敗理由は区別せず 401 を返す。
func (h *AuthHandler) Login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Username, req.Password, clientMeta(c))
	if err != nil {
		slog.Warn("login failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid username or password"})
		return
	}
	slog.Info("user login successful", "user_id", pair.User.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, tokenResponse(pair))
}

// Refresh はリフレッシュトークンをローテーションします。
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req api.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, clientMeta(c))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, tokenResponse(pair))
	case errors.Is(err, usecase.ErrSessionNotFound),
		errors.Is(err, usecase.ErrSessionRevoked),
		errors.Is(err, usecase.ErrSessionExpired),
		errors.Is(err, usecase.ErrInvalidRefreshToken):
		slog.Warn("refresh rejected", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid refresh token"})
	default:
		slog.Error("refresh failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}

// Logout はリフレッシュセッションを1件失効させます。
func (h *AuthHandler) Logout(c *gin.Context) {
	var req api.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		slog.Error("logout failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// LogoutAll はログイン中ユーザーの全セッションを失効させます。
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	p, ok := jwtmw.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	if err := h.auth.LogoutAll(c.Request.Context(), p.UserID); err != nil {
		slog.Error("logout all failed", "error", err, "user_id", p.UserID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Me はログイン中のユーザーを返します。ユーザー削除後のトークンは 401。
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := jwtmw.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	user, err := h.auth.Me(c.Request.Context(), p.UserID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, api.UserResponse{ID: user.ID, Username: user.Username})
	case errors.Is(err, usecase.ErrUserNotFound):
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
	default:
		slog.Error("me failed", "error", err, "user_id", p.UserID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}
