package oauthmodel

import "errors"

var (
	ErrMissingCode   = errors.New("missing code parameter")
	ErrMissingState  = errors.New("missing state parameter")
	ErrStateMismatch = errors.New("state does not match login flow")
)
