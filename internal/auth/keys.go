// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package auth

import (
	"crypto/rsa"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// LoadPublicKey reads an RSA public key from a PEM file.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code(CodeInvalidToken).
			With("path", path).
			Wrapf(err, "failed to read public key file")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, oops.Code(CodeInvalidToken).
			With("path", path).
			Wrapf(err, "failed to parse public key")
	}
	return key, nil
}

// LoadPrivateKey reads an RSA private key from a PEM file.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code(CodeInvalidToken).
			With("path", path).
			Wrapf(err, "failed to read private key file")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, oops.Code(CodeInvalidToken).
			With("path", path).
			Wrapf(err, "failed to parse private key")
	}
	return key, nil
}
