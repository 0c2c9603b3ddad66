// Package auth implements the signed session cookie used by the web UI
// and the JSON API.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims carries the authenticated user's name and email, the
// only user state the session holds.
type SessionClaims struct {
	Nome  string `json:"nome"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Manager mints and verifies session cookies.
type Manager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
}

// NewManager creates a session Manager with the given HMAC secret,
// cookie name and token lifetime.
func NewManager(secret, cookieName string, ttl time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		cookieName: cookieName,
		ttl:        ttl,
	}
}

// Issue writes a fresh session cookie for the user onto the response.
func (m *Manager) Issue(w http.ResponseWriter, nome, email string) error {
	now := time.Now()
	claims := &SessionClaims{
		Nome:  nome,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Verify parses and validates the session cookie on the request.
// It returns the claims, or an error for a missing, invalid or expired
// session.
func (m *Manager) Verify(r *http.Request) (*SessionClaims, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, fmt.Errorf("missing session cookie: %w", err)
	}

	token, err := jwt.ParseWithClaims(cookie.Value, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired session token")
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected session claims type")
	}
	return claims, nil
}

type sessionKey struct{}

// WithSession stores the verified claims in the context.
func WithSession(ctx context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(ctx, sessionKey{}, claims)
}

// SessionFrom retrieves the verified claims from the context.
func SessionFrom(ctx context.Context) (*SessionClaims, bool) {
	claims, ok := ctx.Value(sessionKey{}).(*SessionClaims)
	return claims, ok
}
