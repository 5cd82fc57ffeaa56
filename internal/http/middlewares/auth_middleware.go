package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/geocoder89/univault/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "missing_token", "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortUnauthorized(c, "missing_token", "Missing access token")
			return
		}

		identity, err := m.jwt.Verify(raw)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				abortUnauthorized(c, "token_expired", "Access token has expired")
				return
			}
			abortUnauthorized(c, "invalid_token", "Invalid access token")
			return
		}

		// Stash useful bits of identity on the context
		c.Set(CtxUserID, identity.UserID)
		c.Set(CtxEmail, identity.Email)
		c.Set(CtxRole, identity.Role)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// Optional helpers so handlers don't need to know the magic keys.

func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	id, okID := UserIDFromContext(c)
	role, okRole := RoleFromContext(c)

	if !okID || !okRole {
		return auth.Identity{}, false
	}

	email, _ := c.Get(CtxEmail)
	emailStr, _ := email.(string)

	return auth.Identity{UserID: id, Email: emailStr, Role: role}, true
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func RoleFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxRole)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
