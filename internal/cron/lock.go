package cron

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 55 * time.Minute

// Lock grants one cron cycle at a time across worker replicas. When ok is
// true, release must be called once the cycle ends.
type Lock interface {
	TryAcquire(ctx context.Context) (release func(context.Context) error, ok bool, err error)
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a SETNX lease. Each acquisition writes a fresh
// "<host>:<token>" value; release deletes the key only while that value is
// still present, so a lease that expired and moved to another worker stays.
type RedisLock struct {
	client redisStore
	key    string
	ttl    time.Duration
	host   string
}

func NewRedisLock(client redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "cron-worker"
	}
	return &RedisLock{client: client, key: key, ttl: ttl, host: host}, nil
}

func (l *RedisLock) TryAcquire(ctx context.Context) (func(context.Context) error, bool, error) {
	lease := l.host + ":" + uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, lease, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return func(ctx context.Context) error { return l.release(ctx, lease) }, true, nil
}

func (l *RedisLock) release(ctx context.Context, lease string) error {
	holder, err := l.client.Get(ctx, l.key)
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		return fmt.Errorf("read lock holder: %w", err)
	case holder != lease:
		return nil
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}
