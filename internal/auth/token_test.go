package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ztx/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

func TestInspectToken(t *testing.T) {
	sign := func(t *testing.T, claims jwt.Claims) string {
		t.Helper()
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-our-key"))
		if err != nil {
			t.Fatalf("failed to sign: %v", err)
		}
		return raw
	}

	t.Run("registered claims", func(t *testing.T) {
		iat := time.Now().Add(-time.Minute).Truncate(time.Second)
		exp := iat.Add(15 * time.Minute)
		raw := sign(t, jwt.RegisteredClaims{
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		})

		info, err := InspectToken(raw)
		if err != nil {
			t.Fatalf("InspectToken() error = %v", err)
		}
		if info.Subject != "u1" {
			t.Errorf("Subject = %q, want u1", info.Subject)
		}
		if !info.IssuedAt.Equal(iat) || !info.ExpiresAt.Equal(exp) {
			t.Errorf("times = %v / %v, want %v / %v", info.IssuedAt, info.ExpiresAt, iat, exp)
		}
		if info.Expired(time.Now()) {
			t.Error("token should not be expired yet")
		}
		if !info.Expired(exp) {
			t.Error("token should be expired at exp")
		}
	})

	t.Run("expired tokens still decode", func(t *testing.T) {
		raw := sign(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))})

		info, err := InspectToken(raw)
		if err != nil {
			t.Fatalf("InspectToken() error = %v", err)
		}
		if !info.Expired(time.Now()) {
			t.Error("expected expired token")
		}
	})

	t.Run("no exp never expires", func(t *testing.T) {
		info, err := InspectToken(sign(t, jwt.RegisteredClaims{Subject: "u1"}))
		if err != nil {
			t.Fatalf("InspectToken() error = %v", err)
		}
		if info.Expired(time.Now().Add(24 * 365 * time.Hour)) {
			t.Error("token without exp should never expire")
		}
	})

	t.Run("opaque token", func(t *testing.T) {
		if _, err := InspectToken("not-a-jwt"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})
}
