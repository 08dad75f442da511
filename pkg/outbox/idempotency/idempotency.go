// Package idempotency records which outbox consumers have handled which
// events, so redelivered rows are not applied twice.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultClaimTTL bounds how long a crashed consumer blocks redelivery.
	DefaultClaimTTL = 5 * time.Minute

	markerClaimed = "claimed"
	markerDone    = "done"
)

// Store is the redis surface the guard needs.
type Store interface {
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	Set(context.Context, string, any, time.Duration) error
	Del(context.Context, ...string) error
	ConsumerKey(consumer, eventID string) string
}

// Guard is a two-phase claim per (consumer, event). Claim takes a short lease;
// Complete turns it into a done marker that lives for the retention TTL;
// Release drops the lease after a failure.
type Guard struct {
	store    Store
	claimTTL time.Duration
	doneTTL  time.Duration
}

func NewGuard(store Store, doneTTL time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if doneTTL <= 0 {
		return nil, errors.New("idempotency ttl must be positive")
	}
	claimTTL := DefaultClaimTTL
	if doneTTL < claimTTL {
		claimTTL = doneTTL
	}
	return &Guard{store: store, claimTTL: claimTTL, doneTTL: doneTTL}, nil
}

// Claim reports whether the caller now owns the event for consumer. False
// means another attempt holds it or it was already completed.
func (g *Guard) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := g.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, key, markerClaimed, g.claimTTL)
}

func (g *Guard) Complete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := g.key(consumer, eventID)
	if err != nil {
		return err
	}
	return g.store.Set(ctx, key, markerDone, g.doneTTL)
}

func (g *Guard) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := g.key(consumer, eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) key(consumer string, eventID uuid.UUID) (string, error) {
	switch {
	case consumer == "":
		return "", errors.New("consumer name is required")
	case eventID == uuid.Nil:
		return "", errors.New("event id is required")
	}
	return g.store.ConsumerKey(consumer, eventID.String()), nil
}
