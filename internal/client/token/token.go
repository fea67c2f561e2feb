// Package token decodes the claims embedded in a bearer token.
//
// Decoding is deliberately not verification: the client only reads claims for
// session bookkeeping and display, the server remains the authority on token
// validity. No network, no key material, deterministic for a given input.
package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when the raw string is not a decodable token.
	ErrMalformed = errors.New("malformed token")
	// ErrMissingUsername is returned when the token decodes but carries no
	// username claim.
	ErrMissingUsername = errors.New("token missing username claim")
)

// Claims are the token claims the client cares about.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Decode extracts the claims from raw without verifying the signature.
// Callers should match the returned error with errors.Is.
func Decode(raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMalformed
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if claims.Username == "" {
		return nil, ErrMissingUsername
	}

	return claims, nil
}
