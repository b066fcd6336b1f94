// Package token decodes access-token claims on the client side.
//
// Tokens are never verified here: the backend is the sole authority on
// token validity. Decoded claims are a display and routing convenience
// only and must never gate an authorization decision.
package token

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when a token cannot be parsed at all.
var ErrMalformed = errors.New("malformed access token")

// Claims are the client-relevant claims embedded in an access token.
// Missing claims are left as zero values; callers must tolerate absence.
type Claims struct {
	// Subject is the user identifier ("sub").
	Subject string
	// AccountType is the account kind ("typ"): user, company or admin.
	AccountType string
	// ExpiresAt is the expiry ("exp"); zero when the token carries none.
	ExpiresAt time.Time
	// IssuedAt is the issue time ("iat"); zero when absent.
	IssuedAt time.Time
}

// Expired reports whether the token's expiry claim has passed at the
// given instant. A token without an expiry claim never expires
// client-side; the backend still rejects it when it sees fit.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Decode parses the raw token without verifying its signature and
// extracts the claims the client cares about.
func Decode(raw string) (Claims, error) {
	parsed, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	mc, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return Claims{}, ErrMalformed
	}

	var c Claims
	if sub, ok := mc["sub"].(string); ok {
		c.Subject = sub
	}
	if typ, ok := mc["typ"].(string); ok {
		c.AccountType = typ
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	return c, nil
}
