package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssuerMint_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	iss := NewIssuer(secret, "carelink", time.Hour)

	tokenStr, err := iss.Mint("user-1", "dr.x@example.com", "clinic-1", []string{"doctor"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithIssuer("carelink"), jwt.WithAudience("carelink"))
	if err != nil || !token.Valid {
		t.Fatalf("expected valid token, got err=%v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("expected subject user-1, got %s", claims.Subject)
	}
	if claims.Email != "dr.x@example.com" {
		t.Errorf("unexpected email claim: %s", claims.Email)
	}
	if claims.TenantID != "clinic-1" {
		t.Errorf("unexpected tenant claim: %s", claims.TenantID)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "doctor" {
		t.Errorf("unexpected roles: %v", claims.Roles)
	}
}

func TestIssuerMint_Expiry(t *testing.T) {
	secret := []byte("test-secret")
	iss := NewIssuer(secret, "carelink", time.Hour)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	iss.now = func() time.Time { return fixed }

	tokenStr, err := iss.Mint("user-1", "x@example.com", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !claims.ExpiresAt.Time.Equal(fixed.Add(time.Hour)) {
		t.Errorf("expected expiry %v, got %v", fixed.Add(time.Hour), claims.ExpiresAt.Time)
	}
}

func TestIssuerMint_NoSecret(t *testing.T) {
	iss := NewIssuer(nil, "carelink", time.Hour)
	if _, err := iss.Mint("user-1", "x@example.com", "", nil); err == nil {
		t.Error("expected error when secret is empty")
	}
}
