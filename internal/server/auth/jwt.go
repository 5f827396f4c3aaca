// Package auth holds the credential primitives: password hashing and the
// signed token codec.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenType distinguishes access from refresh tokens inside the claims.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Default lifetimes used when a non-positive ttl is passed.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims carries sub, exp, jti (refresh only) and the token type.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"type"`
}

// UserID returns the subject as a user id.
func (c *Claims) UserID() (models.UserID, error) {
	return models.ParseUserID(c.Subject)
}

// TokenCodec signs and verifies compact JWS tokens with a symmetric key.
// A key change invalidates every outstanding token.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

func NewTokenCodec(secret []byte, algorithm string, now func() time.Time) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}

	var method jwt.SigningMethod
	switch algorithm {
	case "", jwt.SigningMethodHS256.Alg():
		method = jwt.SigningMethodHS256
	case jwt.SigningMethodHS384.Alg():
		method = jwt.SigningMethodHS384
	case jwt.SigningMethodHS512.Alg():
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	if now == nil {
		now = time.Now
	}

	return &TokenCodec{secret: secret, method: method, now: now}, nil
}

// Algorithm returns the JWS alg the codec signs with and accepts.
func (c *TokenCodec) Algorithm() string { return c.method.Alg() }

// Now returns the codec's current time.
func (c *TokenCodec) Now() time.Time { return c.now() }

// SignAccess issues an access token for subject expiring at now+ttl.
func (c *TokenCodec) SignAccess(subject models.UserID, now time.Time, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	return c.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: TokenTypeAccess,
	})
}

// SignRefresh issues a refresh token carrying tokenID as jti.
func (c *TokenCodec) SignRefresh(subject models.UserID, tokenID string, now time.Time, ttl time.Duration) (string, error) {
	if tokenID == "" {
		return "", errors.New("refresh token id must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultRefreshTokenTTL
	}
	return c.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        tokenID,
		},
		TokenType: TokenTypeRefresh,
	})
}

func (c *TokenCodec) sign(claims Claims) (string, error) {
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", claims.TokenType, err)
	}
	return signed, nil
}

// Parse verifies token and returns its claims.
//
// Failures are reported as common.ErrTokenMalformed, common.ErrTokenTypeMismatch
// or common.ErrTokenExpired. An expired token still returns its verified
// claims alongside the error.
func (c *TokenCodec) Parse(token string, expected TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{c.method.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrTokenMalformed, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrTokenMalformed)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", common.ErrTokenMalformed)
	}
	if claims.TokenType != expected {
		return nil, fmt.Errorf("%w: got %q, want %q", common.ErrTokenTypeMismatch, claims.TokenType, expected)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", common.ErrTokenMalformed)
	}
	if expected == TokenTypeRefresh && claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", common.ErrTokenMalformed)
	}

	if !c.now().Before(claims.ExpiresAt.Time) {
		return claims, common.ErrTokenExpired
	}

	return claims, nil
}
