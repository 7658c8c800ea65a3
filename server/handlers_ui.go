package server

import (
	"net/http"
)

// LogoutHandler ends the local session. The provider session is left alone.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, ok := s.sessionID(r); ok {
			s.deleteSession(r, id)
		}
		s.expireSessionCookie(w, r)
		w.Header().Set("Cache-Control", "no-store")
		redirectSuccess(w, r, RouteIndex)
	}
}
