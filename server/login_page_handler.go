package server

import (
	"net/http"

	"github.com/jrsteele09/knowledge-hub/internal/metrics"
	"github.com/jrsteele09/knowledge-hub/oauthmodel"
	"github.com/jrsteele09/knowledge-hub/sessions"
	"github.com/rs/zerolog"
)

// LoginHandler starts the authorization-code flow (GET /login). The pending
// flow is stored in the browser's session, reusing it when one exists, and
// the browser is sent to the identity provider.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())
		now := s.now()

		session := s.currentSession(r)
		if session == nil {
			session = sessions.New(now, s.config.GetMaxSessionAge())
		}
		session.Flow = oauthmodel.NewAuthFlow(now)

		if err := s.sessions.Upsert(r.Context(), session); err != nil {
			logger.Error().Err(err).Msg("Failed to store login session")
			s.renderError(w, r, http.StatusInternalServerError, "Sign-in unavailable", "The login could not be started. Please try again.")
			return
		}
		if err := s.setSessionCookie(w, r, session); err != nil {
			logger.Error().Err(err).Msg("Failed to sign session cookie")
			s.renderError(w, r, http.StatusInternalServerError, "Sign-in unavailable", "The login could not be started. Please try again.")
			return
		}

		s.metrics.RecordLogin(metrics.LoginStarted)
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, s.auth.AuthCodeURL(session.Flow), http.StatusFound)
	}
}
