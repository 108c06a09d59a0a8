package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"habit_backend/internal/feature/auth/domain/entity"
)

// mockUserRepository is a mock implementation of UserRepository.
type mockUserRepository struct {
	CreateFunc         func(user *entity.User) error
	FindByUsernameFunc func(username string) (*entity.User, error)
	FindByIDFunc       func(id uint) (*entity.User, error)
}

func (m *mockUserRepository) Create(_ context.Context, user *entity.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(user)
	}
	user.ID = 1
	return nil
}

func (m *mockUserRepository) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	if m.FindByUsernameFunc != nil {
		return m.FindByUsernameFunc(username)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) FindByID(_ context.Context, id uint) (*entity.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id)
	}
	return nil, ErrUserNotFound
}

// mockJWTGenerator is a mock implementation of JWTGenerator.
type mockJWTGenerator struct {
	GenerateTokenFunc func(userID uint, username string) (string, error)
}

func (m *mockJWTGenerator) GenerateToken(userID uint, username string) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(userID, username)
	}
	return "mock-jwt-token", nil
}

// memSessionRepository keeps sessions in a map.
type memSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*entity.Session
}

func newMemSessionRepository() *memSessionRepository {
	return &memSessionRepository{sessions: map[string]*entity.Session{}}
}

func (r *memSessionRepository) Create(_ context.Context, s *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memSessionRepository) FindByID(_ context.Context, id string) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepository) active(userID uint) []*entity.Session {
	var out []*entity.Session
	for _, s := range r.sessions {
		if s.UserID == userID && s.IsValid() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *memSessionRepository) FindByUserID(_ context.Context, userID uint) ([]*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active(userID), nil
}

func (r *memSessionRepository) Revoke(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if s.RevokedAt != nil {
		return ErrSessionRevoked
	}
	now := time.Now()
	s.RevokedAt = &now
	return nil
}

func (r *memSessionRepository) RevokeAllByUserID(_ context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, s := range r.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
	return nil
}

func (r *memSessionRepository) DeleteExpired(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if s.IsExpired() {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *memSessionRepository) CountByUserID(_ context.Context, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.active(userID))), nil
}

func (r *memSessionRepository) DeleteOldestByUserID(_ context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if act := r.active(userID); len(act) > 0 {
		delete(r.sessions, act[0].ID)
	}
	return nil
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthUsecase_Register(t *testing.T) {
	t.Parallel()

	t.Run("stores a bcrypt hash, never the plaintext", func(t *testing.T) {
		var stored *entity.User
		users := &mockUserRepository{
			CreateFunc: func(u *entity.User) error {
				stored = u
				u.ID = 7
				return nil
			},
		}
		uc := NewAuthUsecase(users, newMemSessionRepository(), &mockJWTGenerator{}, Options{})

		user, err := uc.Register(context.Background(), "  alice ", "password123")

		require.NoError(t, err)
		assert.Equal(t, uint(7), user.ID)
		assert.Equal(t, "alice", stored.Username)
		assert.NotEqual(t, "password123", stored.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("password123")))
	})

	t.Run("150 character username with surrounding spaces is accepted", func(t *testing.T) {
		var stored *entity.User
		users := &mockUserRepository{
			CreateFunc: func(u *entity.User) error {
				stored = u
				return nil
			},
		}
		uc := NewAuthUsecase(users, newMemSessionRepository(), &mockJWTGenerator{}, Options{})

		_, err := uc.Register(context.Background(), "  "+strings.Repeat("a", 150)+" ", "password123")

		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("a", 150), stored.Username)
	})

	tests := []struct {
		name     string
		username string
		password string
		users    *mockUserRepository
		wantErr  error
	}{
		{name: "empty username", username: "   ", password: "password123", wantErr: ErrValidation},
		{name: "username too long", username: strings.Repeat("a", 151), password: "password123", wantErr: ErrValidation},
		{name: "empty password", username: "alice", password: "", wantErr: ErrValidation},
		{name: "short password", username: "alice", password: "short", wantErr: ErrValidation},
		{name: "password longer than bcrypt accepts", username: "alice", password: strings.Repeat("a", 73), wantErr: ErrValidation},
		{
			name:     "username already exists",
			username: "alice",
			password: "password123",
			users: &mockUserRepository{
				FindByUsernameFunc: func(string) (*entity.User, error) {
					return &entity.User{ID: 1, Username: "alice"}, nil
				},
			},
			wantErr: ErrUsernameTaken,
		},
		{
			name:     "concurrent insert loses the race",
			username: "alice",
			password: "password123",
			users: &mockUserRepository{
				CreateFunc: func(*entity.User) error { return ErrUsernameTaken },
			},
			wantErr: ErrUsernameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := tt.users
			if users == nil {
				users = &mockUserRepository{
					CreateFunc: func(*entity.User) error {
						t.Fatal("Create must not be called")
						return nil
					},
				}
			}
			uc := NewAuthUsecase(users, newMemSessionRepository(), &mockJWTGenerator{}, Options{})

			_, err := uc.Register(context.Background(), tt.username, tt.password)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("password of exactly 72 bytes is accepted", func(t *testing.T) {
		uc := NewAuthUsecase(&mockUserRepository{}, newMemSessionRepository(), &mockJWTGenerator{}, Options{})

		_, err := uc.Register(context.Background(), "alice", strings.Repeat("a", 72))

		assert.NoError(t, err)
	})

	t.Run("lookup failure is propagated", func(t *testing.T) {
		dbErr := errors.New("database is locked")
		users := &mockUserRepository{
			FindByUsernameFunc: func(string) (*entity.User, error) { return nil, dbErr },
		}
		uc := NewAuthUsecase(users, newMemSessionRepository(), &mockJWTGenerator{}, Options{})

		_, err := uc.Register(context.Background(), "alice", "password123")

		assert.ErrorIs(t, err, dbErr)
	})
}

func TestAuthUsecase_Authenticate(t *testing.T) {
	t.Parallel()

	alice := &entity.User{ID: 1, Username: "alice", Password: hashed(t, "password123")}
	users := &mockUserRepository{
		FindByUsernameFunc: func(username string) (*entity.User, error) {
			if username == "alice" {
				return alice, nil
			}
			return nil, ErrUserNotFound
		},
	}
	uc := NewAuthUsecase(users, newMemSessionRepository(), &mockJWTGenerator{}, Options{})

	t.Run("valid credentials", func(t *testing.T) {
		user, err := uc.Authenticate(context.Background(), "alice", "password123")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, user.ID)
	})

	t.Run("wrong password and unknown user fail identically", func(t *testing.T) {
		_, errWrong := uc.Authenticate(context.Background(), "alice", "wrong-password")
		_, errUnknown := uc.Authenticate(context.Background(), "bob", "password123")

		assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
		assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})
}

func TestAuthUsecase_LoginAndRefresh(t *testing.T) {
	t.Parallel()

	alice := &entity.User{ID: 1, Username: "alice", Password: hashed(t, "password123")}
	users := &mockUserRepository{
		FindByUsernameFunc: func(username string) (*entity.User, error) {
			if username == "alice" {
				return alice, nil
			}
			return nil, ErrUserNotFound
		},
		FindByIDFunc: func(id uint) (*entity.User, error) {
			if id == alice.ID {
				return alice, nil
			}
			return nil, ErrUserNotFound
		},
	}
	jwtGen := &mockJWTGenerator{
		GenerateTokenFunc: func(userID uint, username string) (string, error) {
			assert.Equal(t, alice.ID, userID)
			assert.Equal(t, "alice", username)
			return "access-token", nil
		},
	}
	sessions := newMemSessionRepository()
	uc := NewAuthUsecase(users, sessions, jwtGen, Options{AccessTTL: 15 * time.Minute})
	meta := entity.ClientMeta{UserAgent: "test-agent", IPAddress: "127.0.0.1"}

	pair, err := uc.Login(context.Background(), "alice", "password123", meta)
	require.NoError(t, err)
	assert.Equal(t, "access-token", pair.AccessToken)
	assert.Len(t, pair.RefreshToken, 64)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	stored, err := sessions.FindByID(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "test-agent", stored.UserAgent)
	assert.Equal(t, "127.0.0.1", stored.IPAddress)

	rotated, err := uc.Refresh(context.Background(), pair.RefreshToken, meta)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	old, err := sessions.FindByID(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, old.IsRevoked(), "rotated token must be revoked")

	// 失効済みトークンの再利用は全セッション失効
	_, err = uc.Refresh(context.Background(), pair.RefreshToken, meta)
	assert.ErrorIs(t, err, ErrSessionRevoked)
	latest, err := sessions.FindByID(context.Background(), rotated.RefreshToken)
	require.NoError(t, err)
	assert.True(t, latest.IsRevoked())
}

// staleSessions は失効済みでも未失効として読み出す。読み取りと失効の間に別の
// ローテーションが割り込んだ状態を再現する。
type staleSessions struct {
	*memSessionRepository
}

func (r staleSessions) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	s, err := r.memSessionRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.RevokedAt = nil
	return s, nil
}

func refreshFixture(t *testing.T, sessions SessionRepository) (*authUsecase, string) {
	t.Helper()
	alice := &entity.User{ID: 1, Username: "alice", Password: hashed(t, "password123")}
	users := &mockUserRepository{
		FindByUsernameFunc: func(string) (*entity.User, error) { return alice, nil },
		FindByIDFunc:       func(uint) (*entity.User, error) { return alice, nil },
	}
	uc := NewAuthUsecase(users, sessions, &mockJWTGenerator{}, Options{})
	pair, err := uc.Login(context.Background(), "alice", "password123", entity.ClientMeta{})
	require.NoError(t, err)
	return uc, pair.RefreshToken
}

func TestAuthUsecase_Refresh_LostRaceIsReuse(t *testing.T) {
	t.Parallel()

	mem := newMemSessionRepository()
	uc, token := refreshFixture(t, staleSessions{mem})

	first, err := uc.Refresh(context.Background(), token, entity.ClientMeta{})
	require.NoError(t, err)

	// 2回目も未失効に見えるが、Revoke の比較更新で弾かれる
	second, err := uc.Refresh(context.Background(), token, entity.ClientMeta{})
	assert.Nil(t, second)
	assert.ErrorIs(t, err, ErrSessionRevoked)

	rotated, err := mem.FindByID(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.True(t, rotated.IsRevoked(), "reuse revokes the pair issued to the winner")
}

func TestAuthUsecase_Refresh_ConcurrentSameToken(t *testing.T) {
	t.Parallel()

	uc, token := refreshFixture(t, newMemSessionRepository())

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		reused    int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Refresh(context.Background(), token, entity.ClientMeta{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrSessionRevoked):
				reused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded, "only one rotation may win")
	assert.Equal(t, workers-1, reused)
}

func TestAuthUsecase_Login_InvalidCredentials(t *testing.T) {
	t.Parallel()

	sessions := newMemSessionRepository()
	uc := NewAuthUsecase(&mockUserRepository{}, sessions, &mockJWTGenerator{}, Options{})

	pair, err := uc.Login(context.Background(), "nobody", "password123", entity.ClientMeta{})

	assert.Nil(t, pair)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, sessions.sessions)
}

func TestAuthUsecase_Login_EvictsOldestSession(t *testing.T) {
	t.Parallel()

	alice := &entity.User{ID: 1, Username: "alice", Password: hashed(t, "password123")}
	users := &mockUserRepository{
		FindByUsernameFunc: func(string) (*entity.User, error) { return alice, nil },
	}
	sessions := newMemSessionRepository()
	uc := NewAuthUsecase(users, sessions, &mockJWTGenerator{}, Options{MaxSessionsPerUser: 2})

	var tokens []string
	for i := 0; i < 3; i++ {
		pair, err := uc.Login(context.Background(), "alice", "password123", entity.ClientMeta{})
		require.NoError(t, err)
		tokens = append(tokens, pair.RefreshToken)
		time.Sleep(time.Millisecond)
	}

	count, err := sessions.CountByUserID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = sessions.FindByID(context.Background(), tokens[0])
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAuthUsecase_Refresh_Errors(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Hour)
	sessions := newMemSessionRepository()
	require.NoError(t, sessions.Create(context.Background(), &entity.Session{
		ID: "expired", UserID: 1, CreatedAt: past.Add(-time.Hour), ExpiresAt: past,
	}))
	require.NoError(t, sessions.Create(context.Background(), &entity.Session{
		ID: "orphan", UserID: 99, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour),
	}))
	uc := NewAuthUsecase(&mockUserRepository{}, sessions, &mockJWTGenerator{}, Options{})

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty token", "", ErrInvalidRefreshToken},
		{"unknown token", "does-not-exist", ErrSessionNotFound},
		{"expired session", "expired", ErrSessionExpired},
		{"user deleted", "orphan", ErrSessionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Refresh(context.Background(), tt.token, entity.ClientMeta{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthUsecase_Logout(t *testing.T) {
	t.Parallel()

	sessions := newMemSessionRepository()
	now := time.Now()
	for _, id := range []string{"a", "b"} {
		require.NoError(t, sessions.Create(context.Background(), &entity.Session{
			ID: id, UserID: 1, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
		}))
	}
	uc := NewAuthUsecase(&mockUserRepository{}, sessions, &mockJWTGenerator{}, Options{})

	require.NoError(t, uc.Logout(context.Background(), "a"))
	a, _ := sessions.FindByID(context.Background(), "a")
	assert.True(t, a.IsRevoked())

	assert.NoError(t, uc.Logout(context.Background(), "a"), "already revoked token is ignored")
	assert.NoError(t, uc.Logout(context.Background(), "unknown"), "unknown token is ignored")
	assert.ErrorIs(t, uc.Logout(context.Background(), ""), ErrInvalidRefreshToken)

	require.NoError(t, uc.LogoutAll(context.Background(), 1))
	b, _ := sessions.FindByID(context.Background(), "b")
	assert.True(t, b.IsRevoked())
}

func TestAuthUsecase_Me(t *testing.T) {
	t.Parallel()

	users := &mockUserRepository{
		FindByIDFunc: func(id uint) (*entity.User, error) {
			if id == 3 {
				return &entity.User{ID: 3, Username: "carol"}, nil
			}
			return nil, ErrUserNotFound
		},
	}
	uc := NewAuthUsecase(users, newMemSessionRepository(), &mockJWTGenerator{}, Options{})

	user, err := uc.Me(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "carol", user.Username)

	_, err = uc.Me(context.Background(), 4)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
