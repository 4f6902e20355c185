package auth

import (
	"testing"
	"time"

	"github.com/advisory/backoffice/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(clock clockwork.Clock) *JWTService {
	cfg := config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	}
	return NewJWTService(cfg, WithJWTClock(clock))
}

func TestGenerateAccessToken(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	svc := newTestJWTService(clock)

	token, err := svc.GenerateAccessToken("admin")
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, clock.Now().Add(15*time.Minute), token.ExpiresAt)
}

func TestValidateAccessToken_Success(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := newTestJWTService(clock)

	token, err := svc.GenerateAccessToken("admin")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, 15*time.Minute, claims.RemainingTTL(clock.Now()))
}

func TestValidateAccessToken_ExpiredToken(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := newTestJWTService(clock)

	token, err := svc.GenerateAccessToken("admin")
	require.NoError(t, err)

	clock.Advance(16 * time.Minute)

	_, err = svc.ValidateAccessToken(token.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_InvalidToken(t *testing.T) {
	svc := newTestJWTService(clockwork.NewFakeClock())

	_, err := svc.ValidateAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_DifferentSecret(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := newTestJWTService(clock)
	other := NewJWTService(config.JWTConfig{
		Secret:                "another-secret-key-32-characters!",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	}, WithJWTClock(clock))

	token, err := other.GenerateAccessToken("admin")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_WrongIssuer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := newTestJWTService(clock)
	other := NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "someone-else",
	}, WithJWTClock(clock))

	token, err := other.GenerateAccessToken("admin")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_WrongTokenType(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := newTestJWTService(clock)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
		Username:  "admin",
		TokenType: "refresh",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key-at-least-32-chars"))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "s3cret!"))
	assert.False(t, CheckPassword(hash, ""))

	_, err = HashPassword("")
	assert.Error(t, err)
}
