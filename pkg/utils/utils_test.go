package utils

import (
	"testing"
	"time"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptDecrypt(t *testing.T) {
	t.Parallel()

	sealed, err := Encrypt([]byte("refresh-token"), []byte(testKey))
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	if sealed == "refresh-token" {
		t.Fatalf("token was not encrypted")
	}

	plain, err := Decrypt(sealed, []byte(testKey))
	if err != nil {
		t.Fatalf("Decrypt returned error: %v", err)
	}
	if plain != "refresh-token" {
		t.Fatalf("expected round trip, got %q", plain)
	}

	if _, err := Decrypt(sealed, []byte("fedcba9876543210fedcba9876543210")); err == nil {
		t.Fatalf("expected error with the wrong key")
	}
	if _, err := Decrypt("AAAA", []byte(testKey)); err == nil {
		t.Fatalf("expected error for short ciphertext")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	token, err := GenerateToken("secret", "42", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	claims, err := ValidateToken("secret", token)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if claims.UserID != "42" {
		t.Fatalf("expected user 42, got %s", claims.UserID)
	}

	if _, err := ValidateToken("other", token); err == nil {
		t.Fatalf("expected error for wrong secret")
	}

	expired, _ := GenerateToken("secret", "42", -time.Minute)
	if _, err := ValidateToken("secret", expired); err == nil {
		t.Fatalf("expected error for expired token")
	}
}
