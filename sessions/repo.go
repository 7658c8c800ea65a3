package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
)

// Repo defines the interface for session storage operations.
// Implementations must be safe for concurrent use.
type Repo interface {
	// Upsert creates or replaces a session
	Upsert(ctx context.Context, session *Session) error

	// Get retrieves a session by ID. Returns ErrSessionNotFound or
	// ErrSessionExpired (wrapped) when there is nothing usable.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Delete removes a session by ID. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error
}

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{16,128}$`)

func checkID(sessionID string) error {
	if !validID.MatchString(sessionID) {
		return fmt.Errorf("invalid session id")
	}
	return nil
}

// encode serialises and seals a session for the out-of-process backends.
func encode(sealer *Sealer, session *Session) ([]byte, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return sealer.Seal(data)
}

func decode(sealer *Sealer, blob []byte) (*Session, error) {
	data, err := sealer.Open(blob)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}
