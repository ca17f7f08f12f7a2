package security

import (
	"strings"
	"testing"
	"time"
)

func TestTokenIssueAndVerify(t *testing.T) {
	manager := NewTokenManager("test-secret", "starquest", time.Hour)

	token, err := manager.Issue("user-123", "student")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-123")
	}
	if claims.Role != "student" {
		t.Errorf("Role = %q, want %q", claims.Role, "student")
	}
	if claims.Issuer != "starquest" {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, "starquest")
	}
}

func TestTokenVerifyRejectsExpired(t *testing.T) {
	manager := NewTokenManager("test-secret", "starquest", -time.Minute)

	token, err := manager.Issue("user-123", "student")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := manager.Verify(token); err != ErrTokenInvalid {
		t.Errorf("Verify() error = %v, want %v", err, ErrTokenInvalid)
	}
}

func TestTokenVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", "starquest", time.Hour)
	verifier := NewTokenManager("secret-b", "starquest", time.Hour)

	token, err := issuer.Issue("user-123", "student")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := verifier.Verify(token); err != ErrTokenInvalid {
		t.Errorf("Verify() error = %v, want %v", err, ErrTokenInvalid)
	}
}

func TestTokenVerifyRejectsTampered(t *testing.T) {
	manager := NewTokenManager("test-secret", "starquest", time.Hour)

	token, err := manager.Issue("user-123", "student")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token format: %d parts", len(parts))
	}
	tampered := parts[0] + ".eyJ1c2VySWQiOiJvdGhlciJ9." + parts[2]

	if _, err := manager.Verify(tampered); err != ErrTokenInvalid {
		t.Errorf("Verify() error = %v, want %v", err, ErrTokenInvalid)
	}
}

func TestTokenVerifyRejectsEmpty(t *testing.T) {
	manager := NewTokenManager("test-secret", "starquest", time.Hour)

	if _, err := manager.Verify(""); err != ErrTokenMissing {
		t.Errorf("Verify(\"\") error = %v, want %v", err, ErrTokenMissing)
	}
}

func TestResetToken(t *testing.T) {
	token, err := GenerateResetToken()
	if err != nil {
		t.Fatalf("GenerateResetToken() error = %v", err)
	}
	if len(token) != 40 {
		t.Errorf("token length = %d, want 40", len(token))
	}

	other, err := GenerateResetToken()
	if err != nil {
		t.Fatalf("GenerateResetToken() error = %v", err)
	}
	if token == other {
		t.Error("two generated tokens should differ")
	}

	// Hashing is deterministic and never echoes the input
	hash := HashResetToken(token)
	if hash != HashResetToken(token) {
		t.Error("HashResetToken() should be deterministic")
	}
	if len(hash) != 64 {
		t.Errorf("hash length = %d, want 64", len(hash))
	}
	if hash == token {
		t.Error("hash should differ from the raw token")
	}
}
