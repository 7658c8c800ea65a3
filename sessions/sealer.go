package sessions

import (
	"crypto/rand"
	"fmt"

	apperrors "github.com/jrsteele09/knowledge-hub/internal/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// Sealer encrypts and authenticates session blobs before they leave the
// process (filesystem, Redis).
type Sealer struct {
	key [keySize]byte
}

func NewSealer(key [keySize]byte) *Sealer {
	return &Sealer{key: key}
}

// Seal returns nonce || secretbox(plaintext).
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.key), nil
}

func (s *Sealer) Open(box []byte) ([]byte, error) {
	if len(box) < nonceSize+secretbox.Overhead {
		return nil, apperrors.Wrapf(apperrors.ErrSessionNotFound, "sealed session too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plaintext, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrSessionNotFound, "sealed session failed authentication")
	}
	return plaintext, nil
}
