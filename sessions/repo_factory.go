package sessions

import (
	"context"
	"fmt"

	"github.com/jrsteele09/knowledge-hub/internal/config"
	apperrors "github.com/jrsteele09/knowledge-hub/internal/errors"
	"github.com/redis/go-redis/v9"
)

// NewRepoFromConfig creates the session backend named by the configuration.
// The returned close function releases backend resources.
func NewRepoFromConfig(ctx context.Context, c config.SessionConfig, sealer *Sealer) (Repo, func() error, error) {
	noop := func() error { return nil }

	switch c.GetSessionBackend() {
	case config.SessionBackendMemory:
		return NewInMemoryRepo(), noop, nil

	case config.SessionBackendFilesystem:
		repo, err := NewFileRepo(c.GetSessionDir(), sealer)
		if err != nil {
			return nil, nil, err
		}
		return repo, noop, nil

	case config.SessionBackendRedis:
		opts, err := redis.ParseURL(c.GetRedisURL())
		if err != nil {
			return nil, nil, fmt.Errorf("[sessions NewRepoFromConfig] invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("[sessions NewRepoFromConfig] redis ping: %w", err)
		}
		return NewRedisRepo(rdb, sealer), rdb.Close, nil

	default:
		return nil, nil, apperrors.Wrapf(apperrors.ErrUnknownSessionBackend, "%q", c.GetSessionBackend())
	}
}
