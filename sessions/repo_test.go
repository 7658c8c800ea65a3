package sessions_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	apperrors "github.com/jrsteele09/knowledge-hub/internal/errors"
	"github.com/jrsteele09/knowledge-hub/oauthmodel"
	"github.com/jrsteele09/knowledge-hub/sessions"
	"github.com/jrsteele09/knowledge-hub/users"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret-key"

func testSealer(t *testing.T) *sessions.Sealer {
	t.Helper()
	keys, err := sessions.DeriveKeys(testSecret)
	require.NoError(t, err)
	return sessions.NewSealer(keys.Storage)
}

// repoFactories builds every backend so the same contract runs against each.
func repoFactories(t *testing.T) map[string]func(t *testing.T) sessions.Repo {
	return map[string]func(t *testing.T) sessions.Repo{
		"memory": func(t *testing.T) sessions.Repo {
			return sessions.NewInMemoryRepo()
		},
		"filesystem": func(t *testing.T) sessions.Repo {
			repo, err := sessions.NewFileRepo(filepath.Join(t.TempDir(), "sessions"), testSealer(t))
			require.NoError(t, err)
			return repo
		},
		"redis": func(t *testing.T) sessions.Repo {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { rdb.Close() })
			return sessions.NewRedisRepo(rdb, testSealer(t))
		},
	}
}

func requireGone(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	require.True(t,
		apperrors.Is(err, apperrors.ErrSessionNotFound) || apperrors.Is(err, apperrors.ErrSessionExpired),
		"unexpected error: %v", err)
}

func TestRepo_Contract(t *testing.T) {
	for name, newRepo := range repoFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("round trip", func(t *testing.T) {
				repo := newRepo(t)
				s := sessions.New(time.Now(), time.Hour)
				s.User = &users.Identity{Name: "A", Email: "a@x.com"}

				require.NoError(t, repo.Upsert(ctx, s))

				got, err := repo.Get(ctx, s.ID)
				require.NoError(t, err)
				require.Equal(t, s.ID, got.ID)
				require.Equal(t, users.Identity{Name: "A", Email: "a@x.com"}, *got.User)
				require.True(t, got.Authenticated())
			})

			t.Run("pending flow survives storage", func(t *testing.T) {
				repo := newRepo(t)
				s := sessions.New(time.Now(), time.Hour)
				s.Flow = oauthmodel.NewAuthFlow(time.Now())

				require.NoError(t, repo.Upsert(ctx, s))

				got, err := repo.Get(ctx, s.ID)
				require.NoError(t, err)
				require.NotNil(t, got.Flow)
				require.Equal(t, s.Flow.State, got.Flow.State)
				require.Equal(t, s.Flow.CodeVerifier, got.Flow.CodeVerifier)
				require.False(t, got.Authenticated())
			})

			t.Run("missing", func(t *testing.T) {
				repo := newRepo(t)
				_, err := repo.Get(ctx, sessions.NewID())
				requireGone(t, err)
			})

			t.Run("expired", func(t *testing.T) {
				repo := newRepo(t)
				s := sessions.New(time.Now().Add(-2*time.Hour), time.Hour)
				require.NoError(t, repo.Upsert(ctx, s))

				_, err := repo.Get(ctx, s.ID)
				requireGone(t, err)
			})

			t.Run("delete is idempotent", func(t *testing.T) {
				repo := newRepo(t)
				s := sessions.New(time.Now(), time.Hour)
				require.NoError(t, repo.Upsert(ctx, s))

				require.NoError(t, repo.Delete(ctx, s.ID))
				require.NoError(t, repo.Delete(ctx, s.ID))

				_, err := repo.Get(ctx, s.ID)
				requireGone(t, err)
			})

			t.Run("returned copies are detached", func(t *testing.T) {
				repo := newRepo(t)
				s := sessions.New(time.Now(), time.Hour)
				s.User = &users.Identity{Name: "A", Email: "a@x.com"}
				require.NoError(t, repo.Upsert(ctx, s))

				s.User.Name = "mutated"
				got, err := repo.Get(ctx, s.ID)
				require.NoError(t, err)
				require.Equal(t, "A", got.User.Name)
			})

			t.Run("rejects malformed ids", func(t *testing.T) {
				repo := newRepo(t)
				require.Error(t, repo.Upsert(ctx, &sessions.Session{ID: "../../etc/passwd", ExpiresAt: time.Now().Add(time.Hour)}))
			})
		})
	}
}

func TestFileRepo_StoresSealedBlobs(t *testing.T) {
	dir := t.TempDir()
	repo, err := sessions.NewFileRepo(dir, testSealer(t))
	require.NoError(t, err)

	s := sessions.New(time.Now(), time.Hour)
	s.User = &users.Identity{Name: "Secret Name", Email: "secret@x.com"}
	require.NoError(t, repo.Upsert(context.Background(), s))

	raw, err := os.ReadFile(filepath.Join(dir, s.ID+".session"))
	require.NoError(t, err)
	require.NotContains(t, string(raw), "secret@x.com")
}

func TestFileRepo_PrunesExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	repo, err := sessions.NewFileRepo(dir, testSealer(t))
	require.NoError(t, err)
	ctx := context.Background()

	stale := sessions.New(time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, repo.Upsert(ctx, stale))

	fresh := sessions.New(time.Now(), time.Hour)
	require.NoError(t, repo.Upsert(ctx, fresh))

	_, err = os.Stat(filepath.Join(dir, stale.ID+".session"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, fresh.ID+".session"))
	require.NoError(t, err)
}

func TestRedisRepo_SetsTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	repo := sessions.NewRedisRepo(rdb, testSealer(t))

	s := sessions.New(time.Now(), 30*time.Minute)
	require.NoError(t, repo.Upsert(context.Background(), s))

	ttl := mr.TTL("kh:session:" + s.ID)
	require.Greater(t, ttl, 29*time.Minute)
	require.LessOrEqual(t, ttl, 30*time.Minute)

	mr.FastForward(31 * time.Minute)
	_, err := repo.Get(context.Background(), s.ID)
	requireGone(t, err)
}

func TestInMemoryRepo_PrunesOnWrite(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, sessions.New(time.Now().Add(-2*time.Hour), time.Hour)))
	require.NoError(t, repo.Upsert(ctx, sessions.New(time.Now(), time.Hour)))
	require.Equal(t, 1, repo.Len())
}
