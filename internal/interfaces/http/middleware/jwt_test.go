package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/advisory/backoffice/internal/application/identity"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuthenticator struct {
	tokens map[string]error
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*identity.Session, error) {
	err, ok := s.tokens[token]
	if !ok {
		return nil, shared.ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	return &identity.Session{Username: "admin", TokenID: "jti-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func newJWTRouter() *gin.Engine {
	authn := stubAuthenticator{tokens: map[string]error{
		"good":    nil,
		"expired": shared.ErrTokenExpired,
	}}
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		Authenticator: authn,
		SkipPaths:     []string{"/open"},
	}))
	router.GET("/admin", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": GetJWTUsername(c), "hasSession": GetSession(c) != nil})
	})
	router.GET("/open", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestJWTAuthMiddleware(t *testing.T) {
	router := newJWTRouter()

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"valid token", "/admin", "Bearer good", http.StatusOK, ""},
		{"missing header", "/admin", "", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"wrong scheme", "/admin", "Basic abc", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"empty bearer", "/admin", "Bearer ", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"unknown token", "/admin", "Bearer nope", http.StatusUnauthorized, dto.ErrCodeTokenInvalid},
		{"expired token", "/admin", "Bearer expired", http.StatusUnauthorized, dto.ErrCodeTokenExpired},
		{"skip path", "/open", "", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode == "" {
				return
			}
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestJWTAuthMiddleware_SetsSession(t *testing.T) {
	router := newJWTRouter()

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(AuthHeaderKey, "Bearer good")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "admin", body["username"])
	assert.Equal(t, true, body["hasSession"])
}

func TestGetSession_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetSession(c))
	assert.Empty(t, GetJWTUsername(c))
}
