package sessions

import (
	"crypto/sha256"
	"fmt"
	"io"

	apperrors "github.com/jrsteele09/knowledge-hub/internal/errors"
	"golang.org/x/crypto/hkdf"
)

const keySize = 32

// Keys holds independent keys derived from SECRET_KEY, one per purpose, so
// cookie signatures and stored session blobs never share key material.
type Keys struct {
	CookieSigning []byte
	Storage       [keySize]byte
}

// DeriveKeys expands the configured secret with HKDF-SHA256.
func DeriveKeys(secret string) (Keys, error) {
	if secret == "" {
		return Keys{}, apperrors.Wrapf(apperrors.ErrMissingConfig, "SECRET_KEY")
	}

	var k Keys
	k.CookieSigning = make([]byte, keySize)
	if err := expand(secret, "knowledge-hub cookie signing v1", k.CookieSigning); err != nil {
		return Keys{}, err
	}
	if err := expand(secret, "knowledge-hub session storage v1", k.Storage[:]); err != nil {
		return Keys{}, err
	}
	return k, nil
}

func expand(secret, info string, out []byte) error {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(r, out); err != nil {
		return fmt.Errorf("derive %q key: %w", info, err)
	}
	return nil
}
