package auth_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempoair/airservice/internal/auth"
)

func newService(t *testing.T, cfg auth.JWTConfig) *auth.JWTService {
	t.Helper()
	if cfg.SigningKey == "" {
		cfg.SigningKey = "test-secret-key-for-testing-only"
	}
	svc, err := auth.NewJWTService(cfg)
	require.NoError(t, err)
	return svc
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newService(t, auth.JWTConfig{})

	token, expiresAt, err := svc.GenerateServiceToken("ops-dashboard", []string{auth.ScopeOpsRead}, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(auth.DefaultTokenTTL), expiresAt, 5*time.Second)

	claims, err := svc.ValidateServiceToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops-dashboard", claims.Subject)
	assert.Equal(t, "airservice", claims.Issuer)
	assert.True(t, claims.HasScope(auth.ScopeOpsRead))
	assert.False(t, claims.HasScope(auth.ScopeFlagsWrite))
}

func TestNewJWTService_RequiresKey(t *testing.T) {
	_, err := auth.NewJWTService(auth.JWTConfig{})
	assert.ErrorIs(t, err, auth.ErrMissingSigningKey)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newService(t, auth.JWTConfig{})

	for _, token := range []string{"", "not.a.valid.jwt", "xxx.yyy.zzz"} {
		t.Run(token, func(t *testing.T) {
			_, err := svc.ValidateServiceToken(token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestJWTService_Expired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := newService(t, auth.JWTConfig{Clock: clock})

	token, _, err := svc.GenerateServiceToken("ci", []string{auth.ScopeFlagsWrite}, time.Minute)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	_, err = svc.ValidateServiceToken(token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestJWTService_Mismatch(t *testing.T) {
	issuer := newService(t, auth.JWTConfig{SigningKey: "key-one", Issuer: "a", Audience: "x"})
	token, _, err := issuer.GenerateServiceToken("ci", nil, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  auth.JWTConfig
	}{
		{"wrong key", auth.JWTConfig{SigningKey: "key-two", Issuer: "a", Audience: "x"}},
		{"wrong issuer", auth.JWTConfig{SigningKey: "key-one", Issuer: "b", Audience: "x"}},
		{"wrong audience", auth.JWTConfig{SigningKey: "key-one", Issuer: "a", Audience: "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newService(t, tt.cfg).ValidateServiceToken(token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}
