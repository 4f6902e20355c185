package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/advisory/backoffice/internal/application/identity"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTSessionKey  = "jwt_session"
	JWTUsernameKey = "jwt_username"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// SessionAuthenticator validates a bearer token
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*identity.Session, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// Authenticator is required for token validation
	Authenticator SessionAuthenticator
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// JWTAuthMiddleware guards admin routes with a bearer token
func JWTAuthMiddleware(authenticator SessionAuthenticator, logger *zap.Logger) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		Authenticator: authenticator,
		Logger:        logger,
	})
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}

		token, ok := BearerToken(c)
		if !ok {
			abortUnauthorized(c, cfg, shared.ErrUnauthorized)
			return
		}

		session, err := cfg.Authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, cfg, err)
			return
		}

		c.Set(JWTSessionKey, session)
		c.Set(JWTUsernameKey, session.Username)
		c.Next()
	}
}

// BearerToken extracts the token from the Authorization header
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, cfg JWTMiddlewareConfig, err error) {
	cfg.Logger.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)

	code := dto.ErrCodeUnauthorized
	message := "Authentication required"
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code = dto.NormalizeErrorCode(domainErr.Code)
		message = domainErr.Message
	}
	if dto.GetHTTPStatus(code) != http.StatusUnauthorized {
		code = dto.ErrCodeUnauthorized
	}

	SetErrorCode(c, code)
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetSession retrieves the authenticated session from gin.Context
func GetSession(c *gin.Context) *identity.Session {
	if v, exists := c.Get(JWTSessionKey); exists {
		if s, ok := v.(*identity.Session); ok {
			return s
		}
	}
	return nil
}

// GetJWTUsername retrieves the username from JWT claims in context
func GetJWTUsername(c *gin.Context) string {
	return c.GetString(JWTUsernameKey)
}
