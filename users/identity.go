package users

import (
	"strings"

	apperrors "github.com/jrsteele09/knowledge-hub/internal/errors"
)

// Identity is the authenticated user as seen by the web front-end. It only
// lives inside a valid session.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Claims is the subset of OIDC claims the identity is derived from. The same
// shape is returned by ID tokens and the userinfo endpoint.
type Claims struct {
	Subject           string `json:"sub"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
}

// Identity derives the user identity. Email is the first non-empty of
// email and preferred_username; a missing name falls back to the email.
func (c Claims) Identity() (Identity, error) {
	email := firstNonEmpty(c.Email, c.PreferredUsername)
	if email == "" {
		return Identity{}, apperrors.Wrapf(apperrors.ErrNoIdentityClaims, "neither email nor preferred_username present")
	}

	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = email
	}
	return Identity{Name: name, Email: email}, nil
}

func (i Identity) IsZero() bool {
	return i.Email == ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
