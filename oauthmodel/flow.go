package oauthmodel

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"time"

	"golang.org/x/oauth2"
)

// AuthFlow is the pending-callback state of a login. It is created by
// /login, kept in the browser's session and consumed by /auth/callback.
type AuthFlow struct {
	State        string    `json:"state"`
	Nonce        string    `json:"nonce"`
	CodeVerifier string    `json:"code_verifier"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewAuthFlow creates a flow with a random state, nonce and PKCE verifier.
func NewAuthFlow(now time.Time) *AuthFlow {
	return &AuthFlow{
		State:        randomString(32),
		Nonce:        randomString(32),
		CodeVerifier: oauth2.GenerateVerifier(),
		CreatedAt:    now,
	}
}

// Expired reports whether the flow is older than timeout.
func (f *AuthFlow) Expired(now time.Time, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	return now.Sub(f.CreatedAt) > timeout
}

// MatchesState compares in constant time.
func (f *AuthFlow) MatchesState(state string) bool {
	return subtle.ConstantTimeCompare([]byte(f.State), []byte(state)) == 1
}

// randomString creates a random base64url string
func randomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
