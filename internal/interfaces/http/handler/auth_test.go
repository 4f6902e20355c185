package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/advisory/backoffice/internal/application/identity"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthService implements AuthService for testing
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, input identity.LoginInput) (*identity.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.LoginResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func TestAuthHandler_Login(t *testing.T) {
	expires := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid credentials", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, mock.MatchedBy(func(in identity.LoginInput) bool {
			return in.Username == "admin" && in.Password == "s3cret" && in.IP != ""
		})).Return(&identity.LoginResult{AccessToken: "jwt", ExpiresAt: expires, TokenType: "Bearer", Username: "admin"}, nil)

		router := gin.New()
		router.POST("/auth/login", NewAuthHandler(svc).Login)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"admin","password":"s3cret"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "jwt", data["access_token"])
		assert.Equal(t, "Bearer", data["token_type"])
	})

	t.Run("wrong password", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, mock.Anything).Return(nil, shared.ErrInvalidCredentials)

		router := gin.New()
		router.POST("/auth/login", NewAuthHandler(svc).Login)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"admin","password":"nope"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc := new(MockAuthService)
		router := gin.New()
		router.POST("/auth/login", NewAuthHandler(svc).Login)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"admin"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("revokes bearer token", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Logout", mock.Anything, "abc.def.ghi").Return(nil)

		router := gin.New()
		router.POST("/auth/logout", NewAuthHandler(svc).Logout)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer abc.def.ghi")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("no token", func(t *testing.T) {
		router := gin.New()
		router.POST("/auth/logout", NewAuthHandler(new(MockAuthService)).Logout)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	router := gin.New()
	router.GET("/auth/me", func(c *gin.Context) {
		c.Set(middleware.JWTSessionKey, &identity.Session{Username: "admin", ExpiresAt: time.Now().Add(time.Hour)})
		c.Next()
	}, NewAuthHandler(new(MockAuthService)).Me)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "admin", data["username"])
}
