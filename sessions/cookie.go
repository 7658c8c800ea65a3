package sessions

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/knowledge-hub/internal/errors"
)

// CookieName is the browser cookie carrying the signed session reference.
const CookieName = "kh_session"

// CookieCodec signs session IDs into compact HS256 tokens so a cookie can
// only reference a session this server issued.
type CookieCodec struct {
	key []byte
	now func() time.Time
}

func NewCookieCodec(key []byte) *CookieCodec {
	return &CookieCodec{key: key, now: time.Now}
}

// Encode returns the cookie value for session.
func (c *CookieCodec) Encode(session *Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		IssuedAt:  jwt.NewNumericDate(c.now()),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return value, nil
}

// Decode verifies the cookie value and returns the session ID it carries.
func (c *CookieCodec) Decode(value string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(value, &claims,
		func(*jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", apperrors.Wrapf(apperrors.ErrInvalidCookie, "%v", err)
	}
	if claims.ID == "" {
		return "", apperrors.Wrapf(apperrors.ErrInvalidCookie, "missing session id")
	}
	return claims.ID, nil
}
