package relay

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, sub string, expired bool) string {
	t.Helper()
	exp := time.Now().Add(time.Hour)
	if expired {
		exp = time.Now().Add(-time.Hour)
	}
	claims := jwt.MapClaims{"sub": sub, "exp": exp.Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestAuthenticator_NoSecretAllowsAll(t *testing.T) {
	a := NewAuthenticator("")
	r := httptest.NewRequest("GET", "/listen", nil)
	userID, err := a.Authenticate(r)
	if err != nil || userID != "" {
		t.Fatalf("Authenticate() = (%q, %v), want (\"\", nil)", userID, err)
	}
}

func TestAuthenticator_ValidToken(t *testing.T) {
	a := NewAuthenticator("test-secret")
	token := signToken(t, "test-secret", "user-123", false)
	r := httptest.NewRequest("GET", "/listen", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	userID, err := a.Authenticate(r)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("userID = %q, want user-123", userID)
	}
}

func TestAuthenticator_RejectsWrongSecret(t *testing.T) {
	a := NewAuthenticator("test-secret")
	token := signToken(t, "wrong-secret", "user-123", false)
	r := httptest.NewRequest("GET", "/listen", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	if _, err := a.Authenticate(r); err == nil {
		t.Fatal("Authenticate() = nil error, want rejection")
	}
}

func TestAuthenticator_RejectsExpiredToken(t *testing.T) {
	a := NewAuthenticator("test-secret")
	token := signToken(t, "test-secret", "user-123", true)
	r := httptest.NewRequest("GET", "/listen", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	if _, err := a.Authenticate(r); err == nil {
		t.Fatal("Authenticate() = nil error, want rejection of expired token")
	}
}

func TestAuthenticator_MissingHeader(t *testing.T) {
	a := NewAuthenticator("test-secret")
	r := httptest.NewRequest("GET", "/listen", nil)
	if _, err := a.Authenticate(r); err == nil {
		t.Fatal("Authenticate() = nil error, want error for missing header")
	}
}

func TestDeviceFingerprint(t *testing.T) {
	r := httptest.NewRequest("GET", "/listen", nil)
	r.Header.Set(deviceFingerprintHeader, "abc-123")
	if got := deviceFingerprint(r); got != "abc-123" {
		t.Fatalf("deviceFingerprint() = %q, want abc-123", got)
	}
}
