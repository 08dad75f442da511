package query

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// MemoKey identifies one derivation input: the data version plus the
// request parameters that shaped it.
type MemoKey struct {
	Version uint64
	Search  string
	Filters string
}

// Memo caches the most recent derived result and recomputes only when any
// part of the key changes. Concurrent misses on the same key share one
// compute, and the lock is never held while computing.
type Memo[T any] struct {
	mu    sync.Mutex
	key   MemoKey
	value T
	set   bool
	gen   uint64
	group singleflight.Group
}

// Get returns the cached value for key or computes and stores a new one.
// compute errors are returned without caching.
func (m *Memo[T]) Get(key MemoKey, compute func() (T, error)) (T, error) {
	m.mu.Lock()
	if m.set && m.key == key {
		v := m.value
		m.mu.Unlock()
		return v, nil
	}
	gen := m.gen
	m.mu.Unlock()

	flight := fmt.Sprintf("%d|%d|%q|%q", gen, key.Version, key.Search, key.Filters)
	out, err, _ := m.group.Do(flight, func() (any, error) {
		v, err := compute()
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		// an Invalidate during compute means v may already be stale
		if m.gen == gen {
			m.key, m.value, m.set = key, v, true
		}
		m.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

// Invalidate forces the next Get to recompute.
func (m *Memo[T]) Invalidate() {
	m.mu.Lock()
	m.set = false
	m.gen++
	m.mu.Unlock()
}
