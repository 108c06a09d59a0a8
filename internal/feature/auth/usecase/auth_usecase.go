package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"habit_backend/internal/feature/auth/domain/entity"
)

const (
	// minPasswordLength はパスワードの最低文字数です。
	minPasswordLength = 8
	// maxPasswordBytes は bcrypt が受け付ける入力の上限です。
	maxPasswordBytes = 72
	// maxUsernameLength はusersテーブルのカラム長と一致させる
	maxUsernameLength = 150
	refreshTokenBytes = 32

	// dummyHash はユーザーが存在しない場合にも bcrypt 比較を行うためのハッシュ
	dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// UserRepository はユーザーの永続化層を抽象化します。
type UserRepository interface {
	// Create はユーザー名が登録済みなら ErrUsernameTaken を返します。
	Create(ctx context.Context, user *entity.User) error
	// FindByUsername は該当が無ければ ErrUserNotFound を返します。
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	// FindByID は該当が無ければ ErrUserNotFound を返します。
	FindByID(ctx context.Context, id uint) (*entity.User, error)
}

// JWTGenerator はアクセストークンを署名します。
type JWTGenerator interface {
	GenerateToken(userID uint, username string) (string, error)
}

// Options はトークンの有効期間とユーザーごとのセッション上限です。
type Options struct {
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	MaxSessionsPerUser int
}

// DefaultOptions は未設定時の既定値を返します。
func DefaultOptions() Options {
	return Options{
		AccessTTL:          time.Hour,
		RefreshTTL:         7 * 24 * time.Hour,
		MaxSessionsPerUser: 5,
	}
}

type authUsecase struct {
	users    UserRepository
	sessions SessionRepository
	tokens   JWTGenerator
	opts     Options
	newToken func() (string, error)
}

// NewAuthUsecase は authUsecase を生成します。ゼロ値のオプションはデフォルト値で補完されます。
func NewAuthUsecase(users UserRepository, sessions SessionRepository, tokens JWTGenerator, opts Options) *authUsecase {
	def := DefaultOptions()
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = def.AccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = def.RefreshTTL
	}
	if opts.MaxSessionsPerUser <= 0 {
		opts.MaxSessionsPerUser = def.MaxSessionsPerUser
	}
	return &authUsecase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		opts:     opts,
		newToken: newRefreshToken,
	}
}

func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return fmt.Errorf("%w: username must be at most %d characters", ErrValidation, maxUsernameLength)
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrValidation, minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes long", ErrValidation, maxPasswordBytes)
	}
	return nil
}

// Register はパスワードを bcrypt でハッシュ化してユーザーを作成します。
func (u *authUsecase) Register(ctx context.Context, username, password string) (*entity.User, error) {
	username = normalizeUsername(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	if _, err := u.users.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("lookup username: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &entity.User{Username: username, Password: string(hashed)}
	// 同時登録の競合はアダプタが ErrUsernameTaken に変換する
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	slog.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate はユーザー名とパスワードを検証します。
// 未登録のユーザー名も誤ったパスワードも ErrInvalidCredentials を返し、
// どちらの経路でも bcrypt の比較を1回行います。
func (u *authUsecase) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	user, err := u.users.FindByUsername(ctx, normalizeUsername(username))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	passwordHash := dummyHash
	if err == nil {
		passwordHash = user.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))

	if err != nil || compareErr != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login は認証して新しいリフレッシュセッションを開きます。
func (u *authUsecase) Login(ctx context.Context, username, password string, meta entity.ClientMeta) (*entity.TokenPair, error) {
	user, err := u.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return u.issue(ctx, user, meta)
}

// Refresh はリフレッシュセッションをローテーションします。提示されたトークンを失効させ新しいペアを発行します。
// 失効済みトークンが提示された場合は所有者の全セッションを失効させます。
func (u *authUsecase) Refresh(ctx context.Context, refreshToken string, meta entity.ClientMeta) (*entity.TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	session, err := u.sessions.FindByID(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if session.IsRevoked() {
		return nil, u.reused(ctx, session.UserID)
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	user, err := u.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	// 同じトークンの同時ローテーションは Revoke の比較更新で1件だけ通る
	if err := u.sessions.Revoke(ctx, session.ID); err != nil {
		if errors.Is(err, ErrSessionRevoked) {
			return nil, u.reused(ctx, session.UserID)
		}
		return nil, fmt.Errorf("revoke session: %w", err)
	}
	return u.issue(ctx, user, meta)
}

// reused は失効済みトークンが提示されたときに持ち主の全セッションを失効させます。
func (u *authUsecase) reused(ctx context.Context, userID uint) error {
	slog.Warn("revoked refresh token presented, revoking all sessions", "user_id", userID)
	if err := u.sessions.RevokeAllByUserID(ctx, userID); err != nil {
		slog.Error("failed to revoke sessions", "user_id", userID, "error", err)
	}
	return ErrSessionRevoked
}

// Logout はリフレッシュセッションを1件失効させます。不明なトークンは無視します。
func (u *authUsecase) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrInvalidRefreshToken
	}
	err := u.sessions.Revoke(ctx, refreshToken)
	if err != nil && !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrSessionRevoked) {
		return err
	}
	return nil
}

// LogoutAll はユーザーの全リフレッシュセッションを失効させます。
func (u *authUsecase) LogoutAll(ctx context.Context, userID uint) error {
	return u.sessions.RevokeAllByUserID(ctx, userID)
}

// Me はアクセストークンのユーザーを返します。
func (u *authUsecase) Me(ctx context.Context, userID uint) (*entity.User, error) {
	return u.users.FindByID(ctx, userID)
}

func (u *authUsecase) issue(ctx context.Context, user *entity.User, meta entity.ClientMeta) (*entity.TokenPair, error) {
	access, err := u.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	// 上限を超える場合は古いセッションから削除
	count, err := u.sessions.CountByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	for ; count >= int64(u.opts.MaxSessionsPerUser); count-- {
		if err := u.sessions.DeleteOldestByUserID(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("evict session: %w", err)
		}
	}

	id, err := u.newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	now := time.Now()
	session := &entity.Session{
		ID:        id,
		UserID:    user.ID,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(u.opts.RefreshTTL),
	}
	if err := u.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &entity.TokenPair{
		AccessToken:  access,
		RefreshToken: id,
		ExpiresIn:    int64(u.opts.AccessTTL / time.Second),
		User:         user,
	}, nil
}

func newRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
