package outbox

import (
	"context"
	"sync"

	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
)

// Event is a stored outbox row with its decoded envelope.
type Event struct {
	Row      models.OutboxEvent
	Envelope PayloadEnvelope
}

// Handler consumes events of the types it subscribes to. Name scopes the
// consumer idempotency key, so it must be stable across deploys.
type Handler interface {
	Name() string
	Handle(ctx context.Context, event Event) error
}

// HandlerRegistry maps event types to their handlers.
type HandlerRegistry struct {
	mtx      sync.RWMutex
	handlers map[enums.OutboxEventType][]Handler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[enums.OutboxEventType][]Handler)}
}

func (r *HandlerRegistry) Register(handler Handler, types ...enums.OutboxEventType) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	for _, t := range types {
		r.handlers[t] = append(r.handlers[t], handler)
	}
}

// Resolve returns the handlers for eventType; an empty result means the event
// has no consumers and can be marked published.
func (r *HandlerRegistry) Resolve(eventType enums.OutboxEventType) []Handler {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	handlers := r.handlers[eventType]
	out := make([]Handler, len(handlers))
	copy(out, handlers)
	return out
}
