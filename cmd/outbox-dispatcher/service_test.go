package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/pkg/config"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/logger"
	"github.com/producehub/producehub-backend/pkg/outbox"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	first := newRow(t, enums.EventOrderPlaced)
	second := newRow(t, enums.EventOrderPlaced)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	handler := &fakeHandler{name: "ledger.orders", failFor: map[uuid.UUID]bool{first.AggregateID: true}}
	service := newTestService(t, repo, registryWith(handler, enums.EventOrderPlaced), newFakeGuard())

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != first.ID {
		t.Fatalf("expected first row failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != second.ID {
		t.Fatalf("expected second row published, got %v", repo.published)
	}
	if !repo.nextAttempt[first.ID].After(fixedNow) {
		t.Fatalf("expected retry scheduled after now, got %v", repo.nextAttempt[first.ID])
	}
}

func TestProcessBatchSkipsConsumedHandler(t *testing.T) {
	row := newRow(t, enums.EventStoreApproved)
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	handler := &fakeHandler{name: "notifications"}
	guard := newFakeGuard()
	guard.claimed["notifications:"+envelopeID(t, row)] = true
	service := newTestService(t, repo, registryWith(handler, enums.EventStoreApproved), guard)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if handler.calls != 0 {
		t.Fatalf("expected consumed handler to be skipped, got %d calls", handler.calls)
	}
	if len(repo.published) != 1 {
		t.Fatalf("expected row published, got %d", len(repo.published))
	}
}

func TestProcessBatchReleasesClaimOnFailure(t *testing.T) {
	row := newRow(t, enums.EventOrderPlaced)
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	failing := &fakeHandler{name: "ledger.orders", failFor: map[uuid.UUID]bool{row.AggregateID: true}}
	healthy := &fakeHandler{name: "notifications"}
	registry := outbox.NewHandlerRegistry()
	registry.Register(failing, enums.EventOrderPlaced)
	registry.Register(healthy, enums.EventOrderPlaced)
	guard := newFakeGuard()
	service := newTestService(t, repo, registry, guard)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	id := envelopeID(t, row)
	if guard.claimed["ledger.orders:"+id] {
		t.Fatalf("expected failed handler claim released")
	}
	if !guard.completed["notifications:"+id] {
		t.Fatalf("expected healthy handler completion recorded")
	}
	if guard.completed["ledger.orders:"+id] {
		t.Fatalf("failed handler must not be marked complete")
	}
	if len(repo.failed) != 1 {
		t.Fatalf("expected row failed, got %d", len(repo.failed))
	}
}

func TestProcessBatchFailsUnreadableEnvelope(t *testing.T) {
	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"event_id":"not-a-uuid"}`),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	service := newTestService(t, repo, outbox.NewHandlerRegistry(), newFakeGuard())

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(repo.failed) != 1 || len(repo.published) != 0 {
		t.Fatalf("expected unreadable row failed, failed=%d published=%d", len(repo.failed), len(repo.published))
	}
}

func TestProcessBatchPublishesEventWithoutHandlers(t *testing.T) {
	row := newRow(t, enums.EventTripStatusChanged)
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	service := newTestService(t, repo, outbox.NewHandlerRegistry(), newFakeGuard())

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(repo.published) != 1 {
		t.Fatalf("expected row published, got %d", len(repo.published))
	}
}

func TestRetryDelayGrowsAndCaps(t *testing.T) {
	base := 500 * time.Millisecond
	if d := retryDelay(base, 1); d < base || d >= base+jitterWindow {
		t.Fatalf("first retry delay out of range: %v", d)
	}
	if d := retryDelay(base, 3); d < 2*time.Second || d >= 2*time.Second+jitterWindow {
		t.Fatalf("third retry delay out of range: %v", d)
	}
	if d := retryDelay(base, 40); d < maxRetryDelay || d >= maxRetryDelay+jitterWindow {
		t.Fatalf("expected capped delay, got %v", d)
	}
}

func newTestService(t *testing.T, repo outboxRepository, registry handlerResolver, guard consumerGuard) *Service {
	t.Helper()
	cfg := &config.Config{Outbox: config.OutboxConfig{BatchSize: 2, PollIntervalMS: 100, MaxAttempts: 5}}
	logg := logger.New(logger.Options{
		ServiceName: "outbox-dispatcher-test",
		Output:      io.Discard,
	})
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         &fakeDB{},
		Repository: repo,
		Registry:   registry,
		Guard:      guard,
		Now:        func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func registryWith(handler outbox.Handler, types ...enums.OutboxEventType) *outbox.HandlerRegistry {
	registry := outbox.NewHandlerRegistry()
	registry.Register(handler, types...)
	return registry
}

func newRow(tb testing.TB, eventType enums.OutboxEventType) models.OutboxEvent {
	tb.Helper()
	env := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: fixedNow,
		Data:       json.RawMessage(`{}`),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}
}

func envelopeID(tb testing.TB, row models.OutboxEvent) string {
	tb.Helper()
	env, err := outbox.ParseEnvelope(row.Payload)
	if err != nil {
		tb.Fatalf("parse envelope: %v", err)
	}
	return env.EventID
}

type fakeRepo struct {
	events      []models.OutboxEvent
	published   []uuid.UUID
	failed      []uuid.UUID
	nextAttempt map[uuid.UUID]time.Time
}

func (f *fakeRepo) FetchDue(_ *gorm.DB, _, _ int, _ time.Time) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublished(_ *gorm.DB, id uuid.UUID, _ time.Time) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(_ *gorm.DB, id uuid.UUID, _ error, next time.Time) error {
	f.failed = append(f.failed, id)
	if f.nextAttempt == nil {
		f.nextAttempt = map[uuid.UUID]time.Time{}
	}
	f.nextAttempt[id] = next
	return nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error { return nil }

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakeHandler struct {
	name    string
	failFor map[uuid.UUID]bool
	calls   int
}

func (h *fakeHandler) Name() string { return h.name }

func (h *fakeHandler) Handle(_ context.Context, event outbox.Event) error {
	h.calls++
	if h.failFor[event.Row.AggregateID] {
		return errors.New("transient")
	}
	return nil
}

type fakeGuard struct {
	claimed   map[string]bool
	completed map[string]bool
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{claimed: map[string]bool{}, completed: map[string]bool{}}
}

func (g *fakeGuard) Claim(_ context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key := consumer + ":" + eventID.String()
	if g.claimed[key] {
		return false, nil
	}
	g.claimed[key] = true
	return true, nil
}

func (g *fakeGuard) Complete(_ context.Context, consumer string, eventID uuid.UUID) error {
	g.completed[consumer+":"+eventID.String()] = true
	return nil
}

func (g *fakeGuard) Release(_ context.Context, consumer string, eventID uuid.UUID) error {
	delete(g.claimed, consumer+":"+eventID.String())
	return nil
}
