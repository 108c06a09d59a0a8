package jwtmw

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain はテスト実行前にGinをテストモードに設定します。
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func runMiddleware(secret, authHeader string) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	AuthRequired(secret)(c)
	return w, c
}

// TestAuthRequired_MissingBearerToken はBearerトークンがない場合に401が返されることを検証します。
func TestAuthRequired_MissingBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		authHeader string
	}{
		{"no header", ""},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"bearer lowercase", "bearer token123"},
		{"no space after Bearer", "Bearertoken123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := runMiddleware("test-secret", tt.authHeader)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.True(t, c.IsAborted())
		})
	}
}

// TestAuthRequired_MissingSecret はシークレット未設定時に500が返されることを検証します。
func TestAuthRequired_MissingSecret(t *testing.T) {
	t.Parallel()

	w, _ := runMiddleware("", "Bearer sometoken")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// TestAuthRequired_InvalidToken は改ざん・期限切れトークンで401が返されることを検証します。
func TestAuthRequired_InvalidToken(t *testing.T) {
	t.Parallel()
	const testSecret = "test-secret-key-for-invalid"

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
	}).SignedString([]byte(testSecret))

	tests := []struct {
		name  string
		token string
	}{
		{"malformed token", "not.a.valid.token"},
		{"random string", "randomstring"},
		{"wrong secret", createTokenWithSecret(t, "wrong-secret", 1, time.Hour)},
		{"expired token", createTokenWithSecret(t, testSecret, 1, -time.Hour)},
		{"missing subject", noSubject},
		{"missing expiry", noExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := runMiddleware(testSecret, "Bearer "+tt.token)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			_, ok := PrincipalFrom(c)
			assert.False(t, ok)
		})
	}
}

// TestAuthRequired_ValidToken は有効なトークンでプリンシパルが設定されることを検証します。
func TestAuthRequired_ValidToken(t *testing.T) {
	t.Parallel()
	const testSecret = "test-secret-key-for-valid"

	for _, userID := range []uint{1, 42, 999} {
		t.Run(strconv.Itoa(int(userID)), func(t *testing.T) {
			token := createTokenWithSecret(t, testSecret, userID, time.Hour)

			w, c := runMiddleware(testSecret, "Bearer "+token)

			require.False(t, c.IsAborted(), "response: %s", w.Body.String())
			p, ok := PrincipalFrom(c)
			require.True(t, ok)
			assert.Equal(t, userID, p.UserID)
			assert.Equal(t, "alice", p.Username)
		})
	}
}

// TestAuthRequired_InvalidSigningMethod は none アルゴリズムのトークンが拒否されることを検証します。
func TestAuthRequired_InvalidSigningMethod(t *testing.T) {
	t.Parallel()
	const testSecret = "test-secret-key-for-signing"

	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	w, _ := runMiddleware(testSecret, "Bearer "+tokenStr)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPrincipalFrom_NotSet(t *testing.T) {
	t.Parallel()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := PrincipalFrom(c)
	assert.False(t, ok)
}

func createTokenWithSecret(t *testing.T, secret string, userID uint, expiration time.Duration) string {
	t.Helper()
	token, err := NewGenerator(secret, expiration).GenerateToken(userID, "alice")
	require.NoError(t, err)
	return token
}
