// Package auth issues and validates the HS256 service tokens that guard
// the ops status and admin endpoints.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// Scopes granted to service tokens.
const (
	ScopeOpsRead    = "ops:read"
	ScopeFlagsWrite = "flags:write"
)

// DefaultTokenTTL is used when GenerateServiceToken is given a zero ttl.
const DefaultTokenTTL = time.Hour

var (
	ErrInvalidToken      = errors.New("invalid service token")
	ErrTokenExpired      = errors.New("service token has expired")
	ErrInsufficientScope = errors.New("service token lacks required scope")
	ErrMissingSigningKey = errors.New("jwt signing key is required")
)

// Claims are the claims carried by a service token.
type Claims struct {
	jwt.RegisteredClaims

	Scopes []string `json:"scp,omitempty"`
}

// HasScope reports whether the claims grant scope.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// JWTConfig holds configuration for the JWT service.
type JWTConfig struct {
	// SigningKey is the HS256 secret. Required.
	SigningKey string

	// Issuer claim (default "airservice").
	Issuer string

	// Audience claim (default "airservice-admin").
	Audience string

	// Clock for issue and expiry times. Defaults to the real clock.
	Clock clockwork.Clock
}

// JWTService creates and validates service tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	clock      clockwork.Clock
}

// NewJWTService creates a JWT service.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "airservice"
	}
	if cfg.Audience == "" {
		cfg.Audience = "airservice-admin"
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &JWTService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		clock:      cfg.Clock,
	}, nil
}

// GenerateServiceToken signs a token for subject with the given scopes.
func (s *JWTService) GenerateServiceToken(subject string, scopes []string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := s.clock.Now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        tokenID(),
		},
		Scopes: scopes,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing service token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateServiceToken parses and verifies a token.
func (s *JWTService) ValidateServiceToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func tokenID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
