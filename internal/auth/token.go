// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// DefaultSessionTTL is the validity window of a freshly issued session token.
const DefaultSessionTTL = 24 * time.Hour

// SessionClaims is the authenticated payload of a session token.
type SessionClaims struct {
	UserID  uuid.UUID
	Expires time.Time
}

// IsExpiredAt reports whether the claims are no longer valid at t.
func (c SessionClaims) IsExpiredAt(t time.Time) bool {
	return c.Expires.Before(t)
}

// Session is a signed token together with the instant it stops being valid.
type Session struct {
	Token   string
	Expires time.Time
}

// SessionCodec signs and verifies session tokens.
type SessionCodec interface {
	// Sign produces a token for userID that expires at expires.
	Sign(userID uuid.UUID, expires time.Time) (string, error)

	// Verify authenticates token and returns its claims. ok is false for any
	// malformed, tampered or unparseable token. Expiry is not checked.
	Verify(token string) (claims SessionClaims, ok bool)

	// Issue signs a token for userID valid for the codec's TTL from now.
	Issue(userID uuid.UUID, now time.Time) (Session, error)
}

// TokenCodec implements SessionCodec with HS256-signed JWTs. The subject claim
// carries the user id and the exp claim carries the expiry.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

// NewTokenCodec creates a codec keyed by secret. A non-positive ttl selects
// DefaultSessionTTL. An empty secret is a configuration error.
func NewTokenCodec(secret []byte, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errMissingSecret()
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenCodec{
		secret: secret,
		ttl:    ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithStrictDecoding(),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// TTL returns the validity window applied by Issue.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Sign produces a token for userID that expires at expires. Expiry is stored
// with second precision.
func (c *TokenCodec) Sign(userID uuid.UUID, expires time.Time) (string, error) {
	if c == nil || len(c.secret) == 0 {
		return "", errMissingSecret()
	}
	if userID == uuid.Nil {
		return "", oops.Code("TOKEN_INVALID_SUBJECT").Errorf("user id cannot be nil")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(expires),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return signed, nil
}

// Verify authenticates token and returns its claims. The signature is checked
// before any claim is read.
func (c *TokenCodec) Verify(token string) (SessionClaims, bool) {
	if c == nil || len(c.secret) == 0 || token == "" {
		return SessionClaims{}, false
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return SessionClaims{}, false
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return SessionClaims{}, false
	}
	if claims.ExpiresAt == nil {
		return SessionClaims{}, false
	}

	return SessionClaims{UserID: userID, Expires: claims.ExpiresAt.Time}, true
}

// Issue signs a token for userID valid for TTL from now.
func (c *TokenCodec) Issue(userID uuid.UUID, now time.Time) (Session, error) {
	if c == nil {
		return Session{}, errMissingSecret()
	}
	expires := now.Add(c.ttl).Truncate(time.Second)
	token, err := c.Sign(userID, expires)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, Expires: expires}, nil
}

func errMissingSecret() error {
	return oops.Code("TOKEN_SECRET_MISSING").
		Wrapf(ErrConfig, "session signing secret is required")
}

// Compile-time interface check.
var _ SessionCodec = (*TokenCodec)(nil)
