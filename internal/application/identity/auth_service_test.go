package identity

import (
	"context"
	"testing"
	"time"

	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/auth"
	"github.com/advisory/backoffice/internal/infrastructure/config"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	svc       *AuthService
	clock     *clockwork.FakeClock
	blacklist *auth.InMemoryTokenBlacklist
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	hash, err := auth.HashPassword("s3cret!")
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-with-enough-length",
		AccessTokenExpiration: time.Hour,
		Issuer:                "backoffice-test",
	}, auth.WithJWTClock(clock))
	blacklist := auth.NewInMemoryTokenBlacklist(clock)

	svc := NewAuthService(jwtService, blacklist, AuthServiceConfig{
		Username:         "admin",
		PasswordHash:     hash,
		MaxLoginAttempts: 3,
		LockDuration:     10 * time.Minute,
	}, clock, nil)
	return &authFixture{svc: svc, clock: clock, blacklist: blacklist}
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, LoginInput{Username: " admin ", Password: "s3cret!", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, "admin", result.Username)
	assert.Equal(t, f.clock.Now().Add(time.Hour), result.ExpiresAt)

	session, err := f.svc.Authenticate(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", session.Username)
	assert.NotEmpty(t, session.TokenID)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "nope"},
		{"wrong username", "root", "s3cret!"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			_, err := f.svc.Login(context.Background(), LoginInput{Username: tt.username, Password: tt.password})
			assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
		})
	}
}

func TestAuthService_Login_Lockout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	bad := LoginInput{Username: "admin", Password: "wrong"}

	for range 2 {
		_, err := f.svc.Login(ctx, bad)
		require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	}
	_, err := f.svc.Login(ctx, bad)
	require.ErrorIs(t, err, shared.ErrAccountLocked)

	// correct credentials are refused while locked
	_, err = f.svc.Login(ctx, LoginInput{Username: "admin", Password: "s3cret!"})
	assert.ErrorIs(t, err, shared.ErrAccountLocked)

	f.clock.Advance(10*time.Minute + time.Second)
	_, err = f.svc.Login(ctx, LoginInput{Username: "admin", Password: "s3cret!"})
	assert.NoError(t, err)
}

func TestAuthService_Authenticate(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	result, err := f.svc.Login(ctx, LoginInput{Username: "admin", Password: "s3cret!"})
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		_, err := f.svc.Authenticate(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, shared.ErrTokenInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		f.clock.Advance(2 * time.Hour)
		_, err := f.svc.Authenticate(ctx, result.AccessToken)
		assert.ErrorIs(t, err, shared.ErrTokenExpired)
	})
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	result, err := f.svc.Login(ctx, LoginInput{Username: "admin", Password: "s3cret!"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, result.AccessToken))

	_, err = f.svc.Authenticate(ctx, result.AccessToken)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)

	assert.ErrorIs(t, f.svc.Logout(ctx, "garbage"), shared.ErrTokenInvalid)
}
