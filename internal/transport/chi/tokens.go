package chi

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "indexgate"

// ErrInvalidToken is returned for any session token that fails verification.
var ErrInvalidToken = errors.New("invalid session token")

// TokenIssuer mints and verifies HS256 session tokens carrying an API key.
type TokenIssuer struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates an issuer. defaultTTL applies to keys without their own expiry.
func NewTokenIssuer(secret string, defaultTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), defaultTTL: defaultTTL, now: time.Now}
}

// Issue signs a token for apiKey. A positive expireSec overrides the default lifetime.
func (t *TokenIssuer) Issue(apiKey string, expireSec int64) (string, time.Time, error) {
	ttl := t.defaultTTL
	if expireSec > 0 {
		ttl = time.Duration(expireSec) * time.Second
	}
	now := t.now()
	expires := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    tokenIssuer,
		Subject:   apiKey,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks the signature, issuer and expiry of raw and returns the API key it carries.
func (t *TokenIssuer) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
