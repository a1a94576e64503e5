package relay

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// deviceFingerprintHeader carries an opaque per-device id used for analytics
// and rate-limit keys, per spec.md §6.1.
const deviceFingerprintHeader = "x-device-fingerprint"

// Authenticator verifies the end-user JWT issued by Supabase. A nil secret
// disables verification entirely (local/dev mode).
type Authenticator struct {
	secret []byte
}

// NewAuthenticator builds an Authenticator against a Supabase project's JWT
// secret. An empty secret means every request is accepted unauthenticated,
// for local development.
func NewAuthenticator(supabaseJWTSecret string) *Authenticator {
	if supabaseJWTSecret == "" {
		return &Authenticator{}
	}
	return &Authenticator{secret: []byte(supabaseJWTSecret)}
}

// Authenticate extracts and verifies the Bearer token from r, returning the
// subject claim (the Supabase user id) on success.
func (a *Authenticator) Authenticate(r *http.Request) (userID string, err error) {
	if a.secret == nil {
		return "", nil
	}

	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", fmt.Errorf("relay: missing bearer token")
	}
	raw := strings.TrimPrefix(header, prefix)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("relay: unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("relay: invalid token: %w", err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("relay: token missing subject claim")
	}
	return sub, nil
}

// deviceFingerprint reads the analytics/rate-limit device id header, or ""
// if absent.
func deviceFingerprint(r *http.Request) string {
	return r.Header.Get(deviceFingerprintHeader)
}
