// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

// Package auth validates and mints the bearer tokens that admit a user to a
// game instance. Tokens are RS256 JWTs issued by the out-of-scope lobby API;
// the game server only ever verifies them.
package auth

import (
	"crypto/rsa"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// Error codes for token failures.
const (
	CodeInvalidToken = "AUTH_INVALID_TOKEN"
	CodeWrongGame    = "AUTH_WRONG_GAME"
)

// DefaultTokenTTL is how long minted tokens stay valid.
const DefaultTokenTTL = 24 * time.Hour

// Claims is the token payload: the standard claims plus the game id the
// token admits the subject to and the authorized roster of that game.
type Claims struct {
	GID     string   `json:"gid"`
	Players []string `json:"players"`
	jwt.RegisteredClaims
}

// Identity is the result of a successful validation.
type Identity struct {
	UID     string
	Players []string
}

// Validator verifies bearer tokens against an issuer and a public key.
type Validator struct {
	issuer string
	key    *rsa.PublicKey
}

// NewValidator creates a validator for tokens signed by the holder of the
// private key matching key and issued by issuer.
func NewValidator(issuer string, key *rsa.PublicKey) *Validator {
	return &Validator{issuer: issuer, key: key}
}

// NewValidatorFromFile creates a validator with the public key loaded from a
// PEM file.
func NewValidatorFromFile(issuer, publicKeyFile string) (*Validator, error) {
	key, err := LoadPublicKey(publicKeyFile)
	if err != nil {
		return nil, err
	}
	return NewValidator(issuer, key), nil
}

// Validate checks the token's signature, issuer, and expiry, and that it was
// issued for the given game id. It returns the identity the token was issued
// to, including the authorized roster carried in the claims.
func (v *Validator) Validate(gid, token string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{},
		func(*jwt.Token) (any, error) { return v.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Identity{}, oops.Code(CodeInvalidToken).
			With("gid", gid).
			Wrapf(err, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return Identity{}, oops.Code(CodeInvalidToken).
			Errorf("unexpected claims type")
	}
	if claims.Subject == "" {
		return Identity{}, oops.Code(CodeInvalidToken).
			Errorf("token has no subject")
	}
	if claims.GID != gid {
		return Identity{}, oops.Code(CodeWrongGame).
			With("gid", gid).
			With("token_gid", claims.GID).
			Errorf("token was not issued for game %q", gid)
	}

	return Identity{UID: claims.Subject, Players: claims.Players}, nil
}

// Generator mints admittance tokens. The production issuer lives in the
// lobby API; this counterpart exists for the token CLI command and tests.
type Generator struct {
	issuer string
	key    *rsa.PrivateKey
	ttl    time.Duration
}

// NewGenerator creates a generator signing with key for the given issuer.
// A non-positive ttl falls back to DefaultTokenTTL.
func NewGenerator(issuer string, key *rsa.PrivateKey, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Generator{issuer: issuer, key: key, ttl: ttl}
}

// NewGeneratorFromFile creates a generator with the private key loaded from
// a PEM file.
func NewGeneratorFromFile(issuer, privateKeyFile string, ttl time.Duration) (*Generator, error) {
	key, err := LoadPrivateKey(privateKeyFile)
	if err != nil {
		return nil, err
	}
	return NewGenerator(issuer, key, ttl), nil
}

// Generate mints a token admitting uid to gid with the given roster.
func (g *Generator) Generate(uid, gid string, players []string) (string, error) {
	now := time.Now()
	claims := Claims{
		GID:     gid,
		Players: players,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(g.key)
	if err != nil {
		return "", oops.Code(CodeInvalidToken).
			With("uid", uid).
			With("gid", gid).
			Wrapf(err, "failed to sign token")
	}
	return signed, nil
}
