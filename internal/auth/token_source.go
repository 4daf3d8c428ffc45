// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// OpaqueTokenBytes is the entropy of an opaque token value (64 hex chars).
const OpaqueTokenBytes = 32

// MinSigningKeyBytes is the shortest HMAC key JWTTokenSource accepts.
const MinSigningKeyBytes = 32

// TokenKind distinguishes access from refresh tokens.
type TokenKind string

// Token kinds.
const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenClaims describes the token a TokenSource is asked to mint.
type TokenClaims struct {
	ID        string
	AccountID string
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time // zero for tokens that never expire
}

// TokenSource produces token values. Values must be unguessable; the issuer
// keeps the authoritative token table and never parses them back.
type TokenSource interface {
	Mint(claims TokenClaims) (string, error)
}

// TokenSourceFunc adapts a function into a TokenSource.
type TokenSourceFunc func(claims TokenClaims) (string, error)

// Mint implements TokenSource.
func (f TokenSourceFunc) Mint(claims TokenClaims) (string, error) {
	return f(claims)
}

// OpaqueTokenSource mints random hex strings that carry no claims.
type OpaqueTokenSource struct{}

// Mint returns OpaqueTokenBytes of crypto/rand output, hex encoded.
func (OpaqueTokenSource) Mint(TokenClaims) (string, error) {
	b := make([]byte, OpaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", OpaqueTokenBytes).
			Wrap(err)
	}
	return hex.EncodeToString(b), nil
}

// JWTClaims is the payload of tokens minted by JWTTokenSource.
type JWTClaims struct {
	jwt.RegisteredClaims
	Type TokenKind `json:"typ"`
}

// JWTTokenSource mints HS256-signed JWTs, so relying parties can check a
// token offline with Parse before asking the engine.
type JWTTokenSource struct {
	key    []byte
	issuer string
}

// NewJWTTokenSource creates a JWT source. key must be at least
// MinSigningKeyBytes long.
func NewJWTTokenSource(key []byte, issuer string) (*JWTTokenSource, error) {
	if len(key) < MinSigningKeyBytes {
		return nil, oops.Code("TOKEN_SIGNING_KEY_INVALID").
			With("min_bytes", MinSigningKeyBytes).
			Errorf("signing key must be at least %d bytes", MinSigningKeyBytes)
	}
	return &JWTTokenSource{key: key, issuer: issuer}, nil
}

// Mint signs claims as a JWT.
func (s *JWTTokenSource) Mint(claims TokenClaims) (string, error) {
	registered := jwt.RegisteredClaims{
		ID:       claims.ID,
		Issuer:   s.issuer,
		Subject:  claims.AccountID,
		IssuedAt: jwt.NewNumericDate(claims.IssuedAt),
	}
	if !claims.ExpiresAt.IsZero() {
		registered.ExpiresAt = jwt.NewNumericDate(claims.ExpiresAt)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		RegisteredClaims: registered,
		Type:             claims.Kind,
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Parse verifies the signature and issuer of value and returns its claims.
// Expiry is checked against now.
func (s *JWTTokenSource) Parse(value string, now time.Time) (*JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &JWTClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	}, opts...)
	if err != nil {
		return nil, oops.Code("TOKEN_PARSE_FAILED").Wrap(err)
	}
	return claims, nil
}
