package oauthmodel

import (
	"net/http"
)

// CallbackParameters holds what the identity provider sends back to the
// redirect URI at the end of the authorization request.
type CallbackParameters struct {
	// Code is the authorization code to exchange at the token endpoint.
	// Required: Yes, unless Error is set
	Code string

	// State echoes the value sent on the authorization request.
	// Required: Yes
	// Security: Must match the pending AuthFlow to prevent CSRF
	State string

	// Error is set when the provider refused the request.
	// Example: "access_denied", "invalid_scope"
	Error string

	// ErrorDescription is free text from the provider. It is untrusted and
	// must be sanitised before it is shown to a user.
	ErrorDescription string
}

// CallbackParametersFromRequest reads the callback parameters. FormValue
// covers both query parameters and form_post bodies.
func CallbackParametersFromRequest(r *http.Request) CallbackParameters {
	return CallbackParameters{
		Code:             r.FormValue("code"),
		State:            r.FormValue("state"),
		Error:            r.FormValue("error"),
		ErrorDescription: r.FormValue("error_description"),
	}
}

// HasError reports whether the provider returned an error response.
func (p CallbackParameters) HasError() bool {
	return p.Error != ""
}

// Validate checks the parameters against the pending flow.
func (p CallbackParameters) Validate(flow *AuthFlow) error {
	if p.State == "" {
		return ErrMissingState
	}
	if p.Code == "" {
		return ErrMissingCode
	}
	if flow == nil || !flow.MatchesState(p.State) {
		return ErrStateMismatch
	}
	return nil
}
