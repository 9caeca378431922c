// Package session owns the credential token for one interactive session and
// the navigation guard that derives reachability from it.
//
// The Session is passed explicitly to everything that needs it (the API
// client reads it, the login/logout handlers write it). Nothing caches the
// authentication signal: Authenticated re-derives it from the token on
// every call.
package session

import (
	"errors"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptyToken is returned when Login is called without a credential.
var ErrEmptyToken = errors.New("session: token is required")

// Session holds at most one bearer token.
type Session struct {
	mu    sync.RWMutex
	token string
}

// New returns an unauthenticated session.
func New() *Session {
	return &Session{}
}

// Login stores the token, replacing any previous one.
func (s *Session) Login(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Logout destroys the token.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// Token returns the current credential, or "" when logged out.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Claims are display-only fields decoded from a JWT credential.
type Claims struct {
	Subject string
	Email   string
}

// Label returns the best identifier for the header line.
func (c Claims) Label() string {
	if c.Email != "" {
		return c.Email
	}
	if c.Subject != "" {
		return "user " + c.Subject
	}
	return ""
}

// Claims decodes the token without verifying it. The backend is the only
// party that validates credentials; an opaque (non-JWT) token simply yields
// empty claims.
func (s *Session) Claims() Claims {
	token := s.Token()
	if token == "" {
		return Claims{}
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Claims{}
	}
	mapped, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}
	}
	var claims Claims
	if sub, err := mapped.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if email, ok := mapped["email"].(string); ok {
		claims.Email = strings.TrimSpace(email)
	}
	return claims
}
