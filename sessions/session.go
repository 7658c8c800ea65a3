package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/jrsteele09/knowledge-hub/oauthmodel"
	"github.com/jrsteele09/knowledge-hub/users"
)

// Session is the server-side state referenced by the browser's cookie.
// Two phases:
// 1. Pending login (Flow set, User nil) - between /login and /auth/callback
// 2. Authenticated (User set, Flow nil) - after a successful callback
type Session struct {
	ID        string               `json:"id"`
	User      *users.Identity      `json:"user,omitempty"`
	Flow      *oauthmodel.AuthFlow `json:"flow,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// New creates a session with a fresh random ID.
func New(now time.Time, maxAge time.Duration) *Session {
	return &Session{
		ID:        NewID(),
		CreatedAt: now,
		ExpiresAt: now.Add(maxAge),
	}
}

// NewID returns 32 random bytes encoded as base64url.
func NewID() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// Authenticated reports whether the session carries a user identity.
func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil && !s.User.IsZero()
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TTL returns the remaining lifetime, never negative.
func (s *Session) TTL(now time.Time) time.Duration {
	ttl := s.ExpiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

func (s *Session) clone() *Session {
	c := *s
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	if s.Flow != nil {
		f := *s.Flow
		c.Flow = &f
	}
	return &c
}
