package server

import (
	"net/http"
	"time"

	apperrors "github.com/jrsteele09/knowledge-hub/internal/errors"
	"github.com/jrsteele09/knowledge-hub/sessions"
	"github.com/rs/zerolog"
)

// setSessionCookie points the browser at session for the rest of its life.
func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, session *sessions.Session) error {
	value, err := s.cookies.Encode(session)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessions.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(session.TTL(s.now()).Seconds()),
	})
	return nil
}

func (s *Server) expireSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessions.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// sessionID returns the verified session ID from the request cookie.
func (s *Server) sessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessions.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	id, err := s.cookies.Decode(cookie.Value)
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Ignoring session cookie")
		return "", false
	}
	return id, true
}

// currentSession loads the live session referenced by the request, or nil.
func (s *Server) currentSession(r *http.Request) *sessions.Session {
	id, ok := s.sessionID(r)
	if !ok {
		return nil
	}

	session, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrSessionNotFound) && !apperrors.Is(err, apperrors.ErrSessionExpired) {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to load session")
		}
		return nil
	}
	if session.Expired(s.now()) {
		return nil
	}
	return session
}

// deleteSession removes id from the store, logging rather than failing.
func (s *Server) deleteSession(r *http.Request, id string) {
	if id == "" {
		return
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to delete session")
	}
}

// redirectSuccess completes a state-changing request with 303 See Other
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}
