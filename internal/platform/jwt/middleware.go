package jwtmw

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"habit_backend/internal/api"
)

const (
	ContextUserID   = "userID"
	ContextUsername = "username"
)

// Principal はリクエストの認証済みユーザーです。
type Principal struct {
	UserID   uint
	Username string
}

// AuthRequired は secret で署名された有効な Bearer アクセストークンの無いリクエストを拒否します。
// 成功時は Principal を gin のコンテキストに格納します。
func AuthRequired(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "missing bearer token"})
			return
		}
		if len(key) == 0 {
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: "server misconfigured"})
			return
		}

		var claims Claims
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), &claims,
			func(t *jwt.Token) (any, error) { return key, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		)
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid token"})
			return
		}

		id, err := strconv.ParseUint(claims.Subject, 10, 0)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid token"})
			return
		}

		c.Set(ContextUserID, uint(id))
		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}

// PrincipalFrom は AuthRequired が格納した Principal を返します。
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	id, ok := c.Get(ContextUserID)
	if !ok {
		return Principal{}, false
	}
	uid, ok := id.(uint)
	if !ok || uid == 0 {
		return Principal{}, false
	}
	return Principal{UserID: uid, Username: c.GetString(ContextUsername)}, true
}
