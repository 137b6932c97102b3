// Package auth provides the signed-cookie credential layer: JWT issue and
// verification, the request guard middleware, and password hashing for the
// credential login flow.
//
// The credential is stateless. A token asserts an email identity, signed
// HS256 with a shared secret, valid for one hour. There is no server-side
// session store; the HttpOnly cookie carrying the token is the only state.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the lifetime of an issued credential. After expiry the client
// must obtain a fresh token.
const TokenTTL = time.Hour

const issuer = "dishdash"

// TokenService signs and verifies identity tokens.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given HMAC secret.
// The secret should be at least 32 bytes of random data in production.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: signing secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the token payload. The subject carries the asserted email.
type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a one-hour token asserting the given email identity.
func (s *TokenService) Generate(email string) (string, error) {
	return s.GenerateWithDuration(email, TokenTTL)
}

// GenerateWithDuration signs a token with a custom expiry. Used by tests to
// mint already-expired or near-expiry tokens.
func (s *TokenService) GenerateWithDuration(email string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token string, returning the asserted email.
//
// The parser is pinned to HS256 and this service's issuer, and expiry is
// required, so a token signed with "none" or minted by another app is
// rejected regardless of its payload.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}
	return c.Subject, nil
}
