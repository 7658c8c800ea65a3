package server

import (
	"net/http"

	"github.com/jrsteele09/knowledge-hub/sessions"
	"github.com/jrsteele09/knowledge-hub/users"
)

// IdentityHandler is a handler that only runs for an authenticated user and
// is given that user explicitly.
type IdentityHandler func(w http.ResponseWriter, r *http.Request, user users.Identity)

// RequireSession is the login guard for server-rendered pages. Requests
// without an authenticated session are sent to the landing page.
func (s *Server) RequireSession(next IdentityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := s.currentSession(r)
		if !session.Authenticated() {
			// A cookie that no longer resolves to a session is cleared.
			if _, err := r.Cookie(sessions.CookieName); err == nil && session == nil {
				s.expireSessionCookie(w, r)
			}
			redirectSuccess(w, r, RouteIndex)
			return
		}
		next(w, r, *session.User)
	}
}
