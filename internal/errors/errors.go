package errors

import (
	"errors"
	"fmt"
)

// Common error types for the web front-end
var (
	// Configuration errors
	ErrMissingConfig         = errors.New("missing required configuration")
	ErrUnknownSessionBackend = errors.New("unknown session backend")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidCookie   = errors.New("invalid session cookie")

	// OAuth flow errors
	ErrInvalidState     = errors.New("invalid state parameter")
	ErrFlowExpired      = errors.New("login flow expired")
	ErrProviderError    = errors.New("identity provider returned an error")
	ErrTokenExchange    = errors.New("token exchange failed")
	ErrInvalidIDToken   = errors.New("invalid id token")
	ErrNoIdentityClaims = errors.New("no usable identity claims")

	// Backend errors
	ErrBackendStatus  = errors.New("unexpected backend status")
	ErrBackendPayload = errors.New("backend returned invalid JSON")

	// General errors
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Join combines several errors into one, skipping nils
func Join(errs ...error) error {
	return errors.Join(errs...)
}
