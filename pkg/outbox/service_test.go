package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
)

type recordingRepo struct {
	rows []models.OutboxEvent
	err  error
}

func (r *recordingRepo) Insert(_ *gorm.DB, event models.OutboxEvent) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, event)
	return nil
}

func TestEmitWrapsDataInEnvelope(t *testing.T) {
	repo := &recordingRepo{}
	svc := NewService(repo, nil)
	storeID := uuid.New()

	err := svc.Emit(context.Background(), &gorm.DB{}, DomainEvent{
		EventType:     enums.EventStoreApproved,
		AggregateType: enums.AggregateStore,
		AggregateID:   storeID,
		Actor:         &ActorRef{UserID: uuid.New(), Role: "admin"},
		Data:          StoreDecisionEvent{StoreID: storeID, Name: "Green Grocer", Status: enums.ApprovalStatusApproved},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected one row, got %d", len(repo.rows))
	}
	env, err := ParseEnvelope(repo.rows[0].Payload)
	if err != nil {
		t.Fatalf("parse envelope: %v", err)
	}
	if env.Version != 1 || env.OccurredAt.IsZero() {
		t.Fatalf("unexpected envelope %+v", env)
	}
	data, err := DecodeData[StoreDecisionEvent](env)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.StoreID != storeID || data.Name != "Green Grocer" {
		t.Fatalf("unexpected data %+v", data)
	}
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(&recordingRepo{}, nil)
	if err := svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderPlaced}); !errors.Is(err, errTxRequired) {
		t.Fatalf("expected tx required, got %v", err)
	}
}

func TestEmitRejectsUnknownType(t *testing.T) {
	svc := NewService(&recordingRepo{}, nil)
	if err := svc.Emit(context.Background(), &gorm.DB{}, DomainEvent{EventType: "mystery"}); err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

type namedHandler string

func (h namedHandler) Name() string                         { return string(h) }
func (h namedHandler) Handle(context.Context, Event) error { return nil }

func TestHandlerRegistryResolve(t *testing.T) {
	reg := NewHandlerRegistry()
	reg.Register(namedHandler("notifications"), enums.EventStoreApproved, enums.EventStoreRejected)
	reg.Register(namedHandler("audit"), enums.EventStoreApproved)

	if got := reg.Resolve(enums.EventStoreApproved); len(got) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(got))
	}
	if got := reg.Resolve(enums.EventTripCreated); len(got) != 0 {
		t.Fatalf("expected no handlers, got %d", len(got))
	}
}
