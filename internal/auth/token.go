package auth

import (
	"fmt"
	"time"

	"github.com/desertthunder/ztx/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo holds the registered claims of an access token.
type TokenInfo struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now. Tokens without "exp" never expire.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// InspectToken decodes the claims of a JWT access token without verifying its signature.
//
// The client cannot verify tokens (it has no key); the result is only used for display and expiry hints.
func InspectToken(raw string) (*TokenInfo, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("%w: access token is not a JWT: %v", shared.ErrInvalidInput, err)
	}

	info := &TokenInfo{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
