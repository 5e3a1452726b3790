// Package auth provides the session-token, password-hashing, and request
// authentication primitives for the marketplace API.
//
// AUTHENTICATION FLOW:
//  1. POST /register or POST /login verifies credentials and issues a JWT
//  2. The client sends it back as "Authorization: Bearer <token>"
//  3. Middleware validates the signature and puts the user ID in the
//     request context — identity is never read from request bodies
//
// WHY JWT?
// The token is stateless: the server stores no session table. Everything
// needed (user ID as the "sub" claim, expiry) lives inside the signed
// token, and the HMAC signature makes it tamper-proof without a DB lookup.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "curbside-market"

// DefaultTokenTTL is the session length when config does not override it.
// There is no refresh-token flow, so this is deliberately generous.
const DefaultTokenTTL = 24 * time.Hour

// TokenService signs and verifies session tokens.
//
// It holds the HMAC secret used for both operations — the same secret must
// verify what it signed, so treat it like a password and rotate it in
// production.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime (ttl <= 0 selects DefaultTokenTTL).
//
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims embeds jwt.RegisteredClaims, which carries the standard fields
// (Issuer, Subject, ExpiresAt, IssuedAt). The user ID travels in "sub"
// as a decimal string — the standard claim for the token's principal.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given user.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, fast, and fine for a
// single-server deployment where one process both signs and verifies.
func (s *TokenService) Generate(userID int64) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry.
// Used by tests to mint already-expired or short-lived tokens.
func (s *TokenService) GenerateWithDuration(userID int64, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
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

// Validate parses and verifies a token string and returns the user ID it
// was issued for.
//
// The jwt library checks the signature, the expiry, and — because we pass
// jwt.WithValidMethods — that the algorithm really is HS256. Without that
// last check an attacker could try an "alg confusion" token; with it, the
// token is rejected before the signature is even inspected.
func (s *TokenService) Validate(tokenStr string) (int64, error) {
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
			return 0, fmt.Errorf("auth: token expired")
		}
		return 0, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("auth: token subject is not a valid user id")
	}

	return userID, nil
}
