package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/knowledge-hub/internal/errors"
	"github.com/redis/go-redis/v9"
)

var _ Repo = (*RedisRepo)(nil)

const redisKeyPrefix = "kh:session:"

// RedisRepo stores sealed sessions with a Redis TTL matching the session
// expiry, so Redis owns expiry.
type RedisRepo struct {
	rdb    redis.UniversalClient
	sealer *Sealer
	now    func() time.Time
}

func NewRedisRepo(rdb redis.UniversalClient, sealer *Sealer) *RedisRepo {
	return &RedisRepo{rdb: rdb, sealer: sealer, now: time.Now}
}

func redisKey(sessionID string) string {
	return redisKeyPrefix + sessionID
}

func (r *RedisRepo) Upsert(ctx context.Context, session *Session) error {
	if session == nil {
		return apperrors.Wrapf(apperrors.ErrInternal, "session cannot be nil")
	}
	if err := checkID(session.ID); err != nil {
		return err
	}

	ttl := session.TTL(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, session.ID)
	}

	blob, err := encode(r.sealer, session)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, redisKey(session.ID), blob, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *RedisRepo) Get(ctx context.Context, sessionID string) (*Session, error) {
	if err := checkID(sessionID); err != nil {
		return nil, apperrors.ErrSessionNotFound
	}

	blob, err := r.rdb.Get(ctx, redisKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	session, err := decode(r.sealer, blob)
	if err != nil {
		return nil, err
	}
	if session.Expired(r.now()) {
		return nil, apperrors.ErrSessionExpired
	}
	return session, nil
}

func (r *RedisRepo) Delete(ctx context.Context, sessionID string) error {
	if err := checkID(sessionID); err != nil {
		return nil
	}
	if err := r.rdb.Del(ctx, redisKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
