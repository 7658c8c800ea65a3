package sessions

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/knowledge-hub/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of Repo. Expired
// sessions are pruned lazily on write.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewInMemoryRepo creates a new in-memory session repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Upsert stores a copy so callers cannot mutate stored state
func (r *InMemoryRepo) Upsert(_ context.Context, session *Session) error {
	if session == nil {
		return apperrors.Wrapf(apperrors.ErrInternal, "session cannot be nil")
	}
	if err := checkID(session.ID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
		}
	}
	r.sessions[session.ID] = session.clone()
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, sessionID string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	if s.Expired(r.now()) {
		r.mu.Lock()
		delete(r.sessions, sessionID)
		r.mu.Unlock()
		return nil, apperrors.ErrSessionExpired
	}
	return s.clone(), nil
}

func (r *InMemoryRepo) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

// Len returns the number of stored sessions, including any not yet pruned
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
