package server

import (
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/knowledge-hub/internal/errors"
	"github.com/jrsteele09/knowledge-hub/internal/metrics"
	"github.com/jrsteele09/knowledge-hub/oauthmodel"
	"github.com/jrsteele09/knowledge-hub/sessions"
	"github.com/rs/zerolog"
)

// callbackError is a failed callback mapped to what the user is shown.
type callbackError struct {
	status  int
	title   string
	message string
	err     error
}

// OAuthCallbackHandler completes the login (GET /auth/callback). On success
// the pending session is replaced by a new one holding the identity. On any
// failure no session survives.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())
		pendingID, _ := s.sessionID(r)

		session, cbErr := s.completeLogin(r)
		if cbErr != nil {
			s.deleteSession(r, pendingID)
			s.expireSessionCookie(w, r)
			s.metrics.RecordLogin(metrics.LoginFailure)
			logger.Warn().Err(cbErr.err).Int("status", cbErr.status).Msg("Login callback failed")
			s.renderError(w, r, cbErr.status, cbErr.title, cbErr.message)
			return
		}

		// The pending session is replaced, never promoted.
		s.deleteSession(r, pendingID)
		if err := s.sessions.Upsert(r.Context(), session); err != nil {
			s.expireSessionCookie(w, r)
			s.metrics.RecordLogin(metrics.LoginFailure)
			logger.Error().Err(err).Msg("Failed to store authenticated session")
			s.renderError(w, r, http.StatusInternalServerError, "Sign-in failed", "Your session could not be created. Please try again.")
			return
		}
		if err := s.setSessionCookie(w, r, session); err != nil {
			s.deleteSession(r, session.ID)
			s.expireSessionCookie(w, r)
			s.metrics.RecordLogin(metrics.LoginFailure)
			logger.Error().Err(err).Msg("Failed to sign session cookie")
			s.renderError(w, r, http.StatusInternalServerError, "Sign-in failed", "Your session could not be created. Please try again.")
			return
		}

		s.metrics.RecordLogin(metrics.LoginSuccess)
		logger.Info().Msg("User signed in")
		logger.Debug().Str("email", session.User.Email).Msg("Signed-in identity")
		w.Header().Set("Cache-Control", "no-store")
		redirectSuccess(w, r, RouteDashboard)
	}
}

// completeLogin validates the callback against the pending flow and
// exchanges the code. It returns the new authenticated session.
func (s *Server) completeLogin(r *http.Request) (*sessions.Session, *callbackError) {
	params := oauthmodel.CallbackParametersFromRequest(r)

	if params.HasError() {
		return nil, &callbackError{
			status:  http.StatusBadRequest,
			title:   "Sign-in was not completed",
			message: providerMessage(params),
			err:     apperrors.Wrapf(apperrors.ErrProviderError, "%s", params.Error),
		}
	}

	pending := s.currentSession(r)
	if pending == nil || pending.Flow == nil {
		return nil, invalidLogin(apperrors.Wrapf(apperrors.ErrInvalidState, "no pending login"))
	}
	if err := params.Validate(pending.Flow); err != nil {
		return nil, invalidLogin(apperrors.Wrapf(apperrors.ErrInvalidState, "%v", err))
	}
	if pending.Flow.Expired(s.now(), s.config.GetLoginFlowTimeout()) {
		return nil, &callbackError{
			status:  http.StatusBadRequest,
			title:   "Sign-in expired",
			message: "The sign-in took too long. Please start again.",
			err:     apperrors.ErrFlowExpired,
		}
	}

	identity, err := s.auth.Exchange(r.Context(), params.Code, pending.Flow)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNoIdentityClaims) {
			return nil, &callbackError{
				status:  http.StatusInternalServerError,
				title:   "Sign-in failed",
				message: "Your account did not provide an email address.",
				err:     err,
			}
		}
		return nil, &callbackError{
			status:  http.StatusBadRequest,
			title:   "Sign-in failed",
			message: "The identity provider's response could not be verified.",
			err:     err,
		}
	}

	session := sessions.New(s.now(), s.config.GetMaxSessionAge())
	session.User = &identity
	return session, nil
}

func invalidLogin(err error) *callbackError {
	return &callbackError{
		status:  http.StatusBadRequest,
		title:   "Invalid sign-in request",
		message: "This sign-in link is not valid for your browser session. Please start again.",
		err:     err,
	}
}

// providerMessage renders the provider's error for display. The provider's
// text is untrusted and stripped of markup.
func providerMessage(params oauthmodel.CallbackParameters) string {
	code := strings.TrimSpace(providerTextPolicy.Sanitize(params.Error))
	desc := strings.TrimSpace(providerTextPolicy.Sanitize(params.ErrorDescription))
	if desc == "" {
		return fmt.Sprintf("The identity provider reported: %s", code)
	}
	return fmt.Sprintf("The identity provider reported: %s (%s)", code, desc)
}
