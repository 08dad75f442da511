package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	value string
	ttl   time.Duration
}

type memoryStore struct {
	entries map[string]entry
	failSet error
}

func newMemoryStore() *memoryStore { return &memoryStore{entries: map[string]entry{}} }

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.failSet != nil {
		return false, m.failSet
	}
	if _, ok := m.entries[key]; ok {
		return false, nil
	}
	m.entries[key] = entry{value: value.(string), ttl: ttl}
	return true, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.entries[key] = entry{value: value.(string), ttl: ttl}
	return nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *memoryStore) ConsumerKey(consumer, eventID string) string {
	return "ph:consumer:" + consumer + ":" + eventID
}

func TestClaimCompleteLifecycle(t *testing.T) {
	store := newMemoryStore()
	guard, err := NewGuard(store, 72*time.Hour)
	require.NoError(t, err)
	ctx, id := context.Background(), uuid.New()
	key := store.ConsumerKey("ledger", id.String())

	claimed, err := guard.Claim(ctx, "ledger", id)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, entry{value: markerClaimed, ttl: DefaultClaimTTL}, store.entries[key])

	again, err := guard.Claim(ctx, "ledger", id)
	require.NoError(t, err)
	assert.False(t, again, "a held claim must block a second attempt")

	require.NoError(t, guard.Complete(ctx, "ledger", id))
	assert.Equal(t, entry{value: markerDone, ttl: 72 * time.Hour}, store.entries[key])

	other, err := guard.Claim(ctx, "notifications", id)
	require.NoError(t, err)
	assert.True(t, other, "consumers are tracked independently")
}

func TestReleaseAllowsRetry(t *testing.T) {
	guard, err := NewGuard(newMemoryStore(), time.Hour)
	require.NoError(t, err)
	ctx, id := context.Background(), uuid.New()

	_, err = guard.Claim(ctx, "ledger", id)
	require.NoError(t, err)
	require.NoError(t, guard.Release(ctx, "ledger", id))

	claimed, err := guard.Claim(ctx, "ledger", id)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestClaimTTLNeverExceedsDoneTTL(t *testing.T) {
	store := newMemoryStore()
	guard, err := NewGuard(store, time.Minute)
	require.NoError(t, err)
	id := uuid.New()

	_, err = guard.Claim(context.Background(), "ledger", id)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, store.entries[store.ConsumerKey("ledger", id.String())].ttl)
}

func TestGuardValidation(t *testing.T) {
	_, err := NewGuard(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewGuard(newMemoryStore(), 0)
	assert.Error(t, err)

	guard, err := NewGuard(newMemoryStore(), time.Hour)
	require.NoError(t, err)
	_, err = guard.Claim(context.Background(), "", uuid.New())
	assert.Error(t, err)
	_, err = guard.Claim(context.Background(), "ledger", uuid.Nil)
	assert.Error(t, err)
}

func TestClaimSurfacesStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.failSet = errors.New("redis down")
	guard, err := NewGuard(store, time.Hour)
	require.NoError(t, err)

	_, err = guard.Claim(context.Background(), "ledger", uuid.New())
	assert.ErrorIs(t, err, store.failSet)
}
