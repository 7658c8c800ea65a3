package sessions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/knowledge-hub/internal/errors"
	"github.com/rs/zerolog/log"
)

var _ Repo = (*FileRepo)(nil)

const fileSuffix = ".session"

// FileRepo keeps one sealed file per session. The file's modification time
// is set to the session expiry so stale files can be pruned without
// decrypting them.
type FileRepo struct {
	dir    string
	sealer *Sealer
	now    func() time.Time
}

// NewFileRepo creates dir if needed.
func NewFileRepo(dir string, sealer *Sealer) (*FileRepo, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("[sessions NewFileRepo] create %s: %w", dir, err)
	}
	return &FileRepo{dir: dir, sealer: sealer, now: time.Now}, nil
}

func (r *FileRepo) path(sessionID string) string {
	return filepath.Join(r.dir, sessionID+fileSuffix)
}

func (r *FileRepo) Upsert(_ context.Context, session *Session) error {
	if session == nil {
		return apperrors.Wrapf(apperrors.ErrInternal, "session cannot be nil")
	}
	if err := checkID(session.ID); err != nil {
		return err
	}

	blob, err := encode(r.sealer, session)
	if err != nil {
		return err
	}

	// Write to a temp file and rename so readers never see a partial blob.
	tmp, err := os.CreateTemp(r.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Chtimes(tmpName, session.ExpiresAt, session.ExpiresAt); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("stamp session expiry: %w", err)
	}
	if err := os.Rename(tmpName, r.path(session.ID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename session file: %w", err)
	}

	r.pruneExpired()
	return nil
}

func (r *FileRepo) Get(_ context.Context, sessionID string) (*Session, error) {
	if err := checkID(sessionID); err != nil {
		return nil, apperrors.ErrSessionNotFound
	}

	blob, err := os.ReadFile(r.path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	session, err := decode(r.sealer, blob)
	if err != nil {
		return nil, err
	}
	if session.Expired(r.now()) {
		_ = os.Remove(r.path(sessionID))
		return nil, apperrors.ErrSessionExpired
	}
	return session, nil
}

func (r *FileRepo) Delete(_ context.Context, sessionID string) error {
	if err := checkID(sessionID); err != nil {
		return nil
	}
	err := os.Remove(r.path(sessionID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete session file: %w", err)
	}
	return nil
}

// pruneExpired removes session files whose expiry stamp has passed.
func (r *FileRepo) pruneExpired() {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", r.dir).Msg("Failed to list session directory")
		return
	}
	now := r.now()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !now.Before(info.ModTime()) {
			_ = os.Remove(filepath.Join(r.dir, e.Name()))
		}
	}
}
