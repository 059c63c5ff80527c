package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/edgegate/gatekeeper/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubManager validates a single known token.
type stubManager struct {
	validToken  string
	principal   *auth.Principal
	validateErr error
}

func (m *stubManager) Login(_ context.Context, _, _ string) (*auth.TokenSession, error) {
	return nil, auth.ErrInvalidCredentials
}

func (m *stubManager) Logout(_ context.Context, _ string) error {
	return nil
}

func (m *stubManager) Validate(_ context.Context, token string) (*auth.Principal, error) {
	if m.validateErr != nil {
		return nil, m.validateErr
	}
	if token == m.validToken {
		return m.principal, nil
	}
	return nil, auth.ErrTokenExpiredOrRevoked
}

func newAuthTestRouter(manager auth.Manager) *gin.Engine {
	router := gin.New()
	router.Use(Auth(AuthConfig{
		Manager:            manager,
		PublicPathPrefixes: []string{"/api/auth/"},
		PublicPaths:        []string{"/", "/health"},
		Logger:             zap.NewNop(),
	}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/api/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/data", func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, principal)
	})
	return router
}

func TestAuth_PublicPathsSkipValidation(t *testing.T) {
	router := newAuthTestRouter(&stubManager{})

	for _, tc := range []struct {
		method string
		path   string
	}{
		{"GET", "/"},
		{"GET", "/health"},
		{"POST", "/api/auth/login"},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestAuth_MissingTokenRejected(t *testing.T) {
	router := newAuthTestRouter(&stubManager{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/data", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication required")
}

func TestAuth_MalformedAuthorizationHeaderRejected(t *testing.T) {
	router := newAuthTestRouter(&stubManager{validToken: "good"})

	for _, header := range []string{"good", "Basic good", "Bearer "} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/data", nil)
		req.Header.Set("Authorization", header)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestAuth_ValidTokenAttachesPrincipal(t *testing.T) {
	router := newAuthTestRouter(&stubManager{
		validToken: "good",
		principal:  &auth.Principal{Subject: "alice", UserID: "1"},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/data", nil)
	req.Header.Set("Authorization", "Bearer good")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subject":"alice"`)
	assert.Contains(t, w.Body.String(), `"userId":"1"`)
}

func TestAuth_RevokedTokenRejected(t *testing.T) {
	router := newAuthTestRouter(&stubManager{
		validateErr: auth.ErrTokenExpiredOrRevoked,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/data", nil)
	req.Header.Set("Authorization", "Bearer revoked")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired or revoked")
}

func TestAuth_InvalidTokenRejected(t *testing.T) {
	router := newAuthTestRouter(&stubManager{
		validateErr: auth.ErrInvalidToken,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/data", nil)
	req.Header.Set("Authorization", "Bearer bad")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")
}

func TestAuth_StoreErrorYields503(t *testing.T) {
	router := newAuthTestRouter(&stubManager{
		validateErr: auth.ErrSessionStore,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/data", nil)
	req.Header.Set("Authorization", "Bearer anything")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"valid", "Bearer abc", "abc", true},
		{"case insensitive scheme", "bearer abc", "abc", true},
		{"surrounding whitespace", "Bearer   abc  ", "abc", true},
		{"missing header", "", "", false},
		{"wrong scheme", "Basic abc", "", false},
		{"empty token", "Bearer ", "", false},
		{"bare token", "abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			token, ok := ExtractBearerToken(r)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, token)
		})
	}
}

func TestAuthConfig_IsPublicPath(t *testing.T) {
	cfg := AuthConfig{
		PublicPathPrefixes: []string{"/api/auth/"},
		PublicPaths:        []string{"/", "/health"},
	}

	assert.True(t, cfg.IsPublicPath("/"))
	assert.True(t, cfg.IsPublicPath("/health"))
	assert.True(t, cfg.IsPublicPath("/api/auth/login"))
	assert.True(t, cfg.IsPublicPath("/api/auth/logout"))
	assert.False(t, cfg.IsPublicPath("/api/auth"))
	assert.False(t, cfg.IsPublicPath("/api/data"))
	assert.False(t, cfg.IsPublicPath("/healthz"))
}
