// Package identity authenticates the back-office administrator.
package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/auth"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	Username         string
	PasswordHash     string        // bcrypt
	MaxLoginAttempts int           // failed attempts before the account is locked
	LockDuration     time.Duration // how long the lock lasts
}

// DefaultAuthServiceConfig returns default lockout settings
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// AuthService handles administrator login, logout and token validation
type AuthService struct {
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	config     AuthServiceConfig
	clock      clockwork.Clock
	logger     *zap.Logger

	mu          sync.Mutex
	failures    int
	lockedUntil time.Time
}

// NewAuthService creates a new authentication service. blacklist may be nil,
// in which case logout is a no-op.
func NewAuthService(
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	clock clockwork.Clock,
	logger *zap.Logger,
) *AuthService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultAuthServiceConfig()
	if config.MaxLoginAttempts <= 0 {
		config.MaxLoginAttempts = defaults.MaxLoginAttempts
	}
	if config.LockDuration <= 0 {
		config.LockDuration = defaults.LockDuration
	}
	return &AuthService{
		jwtService: jwtService,
		blacklist:  blacklist,
		config:     config,
		clock:      clock,
		logger:     logger,
	}
}

// Login checks the configured administrator credentials and issues an access token
func (s *AuthService) Login(_ context.Context, input LoginInput) (*LoginResult, error) {
	if s.isLocked() {
		s.logger.Warn("Login attempt while locked", zap.String("username", input.Username), zap.String("ip", input.IP))
		return nil, shared.ErrAccountLocked
	}

	username := strings.TrimSpace(input.Username)
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.config.Username)) == 1
	passOK := auth.CheckPassword(s.config.PasswordHash, input.Password)
	if !userOK || !passOK {
		if s.recordFailure() {
			s.logger.Warn("Admin login locked after too many failed attempts",
				zap.String("ip", input.IP),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, shared.ErrAccountLocked
		}
		s.logger.Warn("Invalid login attempt", zap.String("username", username), zap.String("ip", input.IP))
		return nil, shared.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateAccessToken(s.config.Username)
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate access token")
	}
	s.resetFailures()

	s.logger.Info("Admin logged in", zap.String("username", s.config.Username), zap.String("ip", input.IP))
	return &LoginResult{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   token.TokenType,
		Username:    s.config.Username,
	}, nil
}

// Authenticate validates an access token and checks it has not been revoked
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims, err := s.jwtService.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, shared.ErrTokenExpired
		}
		return nil, shared.ErrTokenInvalid
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			// fail open: a cache outage must not lock the administrator out
			s.logger.Warn("Token blacklist check failed", zap.Error(err))
		} else if revoked {
			return nil, shared.ErrTokenInvalid
		}
	}

	session := &Session{Username: claims.Username, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// Logout revokes the token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtService.ValidateAccessToken(token)
	if err != nil {
		return shared.ErrTokenInvalid
	}
	if s.blacklist == nil {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL(s.clock.Now())); err != nil {
		return err
	}
	s.logger.Info("Admin logged out", zap.String("username", claims.Username))
	return nil
}

func (s *AuthService) isLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Now().Before(s.lockedUntil)
}

// recordFailure counts a failed attempt and reports whether it locked the account
func (s *AuthService) recordFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
	if s.failures < s.config.MaxLoginAttempts {
		return false
	}
	s.failures = 0
	s.lockedUntil = s.clock.Now().Add(s.config.LockDuration)
	return true
}

func (s *AuthService) resetFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
}
