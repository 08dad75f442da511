package cron

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, held := m.values[key]; held {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

const testLockKey = "producehub:lock:cron-worker"

func TestRedisLockGrantsOneCycleAtATime(t *testing.T) {
	store := newMemoryRedis()
	ctx := context.Background()
	workerA, err := NewRedisLock(store, testLockKey, 0)
	require.NoError(t, err)
	workerB, err := NewRedisLock(store, testLockKey, 0)
	require.NoError(t, err)

	release, ok, err := workerA.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, defaultLockTTL, store.ttls[testLockKey])
	assert.True(t, strings.HasPrefix(store.values[testLockKey], workerA.host+":"))

	_, ok, err = workerB.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second replica must skip the cycle")

	require.NoError(t, release(ctx))
	_, ok, err = workerB.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockReleaseKeepsSomeoneElsesLease(t *testing.T) {
	store := newMemoryRedis()
	ctx := context.Background()
	lock, err := NewRedisLock(store, testLockKey, time.Minute)
	require.NoError(t, err)

	release, ok, err := lock.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// lease expired and another worker took it
	store.values[testLockKey] = "worker-b:lease"
	require.NoError(t, release(ctx))
	assert.Equal(t, "worker-b:lease", store.values[testLockKey])

	delete(store.values, testLockKey)
	assert.NoError(t, release(ctx), "missing key is a no-op")
}

func TestNewRedisLockValidates(t *testing.T) {
	_, err := NewRedisLock(nil, testLockKey, 0)
	assert.Error(t, err)
	_, err = NewRedisLock(newMemoryRedis(), "", 0)
	assert.Error(t, err)
}
