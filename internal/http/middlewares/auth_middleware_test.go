package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/univault/internal/auth"
	"github.com/geocoder89/univault/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	verifyFn func(token string) (auth.Identity, error)
}

func (f *fakeVerifier) Verify(token string) (auth.Identity, error) {
	if f.verifyFn != nil {
		return f.verifyFn(token)
	}
	return auth.Identity{}, auth.ErrTokenInvalid
}

func protectedRouter(v middlewares.TokenVerifier) *gin.Engine {
	r := gin.New()

	mw := middlewares.NewAuthMiddleware(v)

	r.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		id, ok := middlewares.IdentityFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no identity"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": id.UserID, "role": id.Role})
	})

	return r
}

func TestRequireAuth(t *testing.T) {
	verifier := &fakeVerifier{
		verifyFn: func(token string) (auth.Identity, error) {
			switch token {
			case "good":
				return auth.Identity{UserID: "user-1", Email: "a@x.com", Role: "user"}, nil
			case "stale":
				return auth.Identity{}, auth.ErrTokenExpired
			default:
				return auth.Identity{}, auth.ErrTokenInvalid
			}
		},
	}

	tests := []struct {
		name           string
		authHeader     string
		wantStatusCode int
		wantInBody     string
	}{
		{
			name:           "no_header",
			authHeader:     "",
			wantStatusCode: http.StatusUnauthorized,
			wantInBody:     "missing_token",
		},
		{
			name:           "wrong_scheme",
			authHeader:     "Basic abc123",
			wantStatusCode: http.StatusUnauthorized,
			wantInBody:     "missing_token",
		},
		{
			name:           "empty_bearer",
			authHeader:     "Bearer ",
			wantStatusCode: http.StatusUnauthorized,
			wantInBody:     "missing_token",
		},
		{
			name:           "invalid_token",
			authHeader:     "Bearer garbage",
			wantStatusCode: http.StatusUnauthorized,
			wantInBody:     "invalid_token",
		},
		{
			name:           "expired_token",
			authHeader:     "Bearer stale",
			wantStatusCode: http.StatusUnauthorized,
			wantInBody:     "token_expired",
		},
		{
			name:           "valid_token",
			authHeader:     "Bearer good",
			wantStatusCode: http.StatusOK,
			wantInBody:     "user-1",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			r := protectedRouter(verifier)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if !strings.Contains(w.Body.String(), tt.wantInBody) {
				t.Fatalf("body %q does not contain %q", w.Body.String(), tt.wantInBody)
			}
		})
	}
}
