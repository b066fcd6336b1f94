package token

import (
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

func mint(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	return s
}

func TestDecode(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := mint(t, jwtlib.MapClaims{
		"sub": "u-123",
		"typ": "company",
		"exp": exp.Unix(),
	})

	c, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.Subject != "u-123" {
		t.Errorf("Subject = %q, want %q", c.Subject, "u-123")
	}
	if c.AccountType != "company" {
		t.Errorf("AccountType = %q, want %q", c.AccountType, "company")
	}
	if !c.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", c.ExpiresAt, exp)
	}
}

func TestDecodeMissingClaims(t *testing.T) {
	// Claim-derived fields are convenience only; absence must not fail.
	raw := mint(t, jwtlib.MapClaims{"typ": "user"})

	c, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.Subject != "" {
		t.Errorf("Subject = %q, want empty", c.Subject)
	}
	if c.AccountType != "user" {
		t.Errorf("AccountType = %q, want %q", c.AccountType, "user")
	}
	if !c.ExpiresAt.IsZero() {
		t.Errorf("ExpiresAt = %v, want zero", c.ExpiresAt)
	}
	if c.Expired(time.Now().Add(24 * time.Hour)) {
		t.Error("token without exp claim must never expire client-side")
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, raw := range []string{"", "not-a-token", "a.b", "x.y.z"} {
		if _, err := Decode(raw); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q) error = %v, want ErrMalformed", raw, err)
		}
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	past := mint(t, jwtlib.MapClaims{"sub": "u-1", "exp": now.Add(-time.Minute).Unix()})
	future := mint(t, jwtlib.MapClaims{"sub": "u-1", "exp": now.Add(time.Minute).Unix()})

	c, err := Decode(past)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !c.Expired(now) {
		t.Error("expected past token to be expired")
	}

	c, err = Decode(future)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.Expired(now) {
		t.Error("expected future token to not be expired")
	}
}
