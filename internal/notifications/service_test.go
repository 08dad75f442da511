package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/db/dbtest"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/outbox"
)

var admin = auth.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}

func storeActor(id uuid.UUID) auth.Actor {
	return auth.Actor{UserID: uuid.New(), Role: enums.RoleStore, StoreID: &id}
}

func newTestService(t *testing.T) (Service, Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t, dbtest.Notifications))
	at := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	svc, err := NewService(repo, func() time.Time {
		at = at.Add(time.Second)
		return at
	})
	require.NoError(t, err)
	return svc, repo
}

func TestListPaginatesWithCursorAndCarriesDisplay(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := svc.Notify(ctx, nil, NotifyInput{Type: enums.NotificationTypeOrderPlaced, Message: "order"})
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, admin, ListParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.Cursor)
	assert.Equal(t, "shopping-cart", first.Items[0].Icon)
	assert.Equal(t, "New Order", first.Items[0].Title, "blank titles fall back to the label")

	seen := map[uuid.UUID]bool{}
	for _, it := range first.Items {
		seen[it.ID] = true
	}
	cursor := first.Cursor
	for cursor != "" {
		page, err := svc.List(ctx, admin, ListParams{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		for _, it := range page.Items {
			assert.False(t, seen[it.ID], "pages must not overlap")
			seen[it.ID] = true
		}
		cursor = page.Cursor
	}
	assert.Len(t, seen, 5)

	_, err = svc.List(ctx, admin, ListParams{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestInboxesAreSeparatedByRecipient(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	storeID := uuid.New()
	mine, err := svc.Notify(ctx, nil, NotifyInput{StoreID: &storeID, Type: enums.NotificationTypeChequeBounced, Message: "bounced"})
	require.NoError(t, err)
	adminItem, err := svc.Notify(ctx, nil, NotifyInput{Type: enums.NotificationTypeSystem, Message: "hello"})
	require.NoError(t, err)

	res, err := svc.List(ctx, storeActor(storeID), ListParams{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, mine.ID, res.Items[0].ID)
	assert.Equal(t, "red", res.Items[0].Color)

	err = svc.MarkRead(ctx, storeActor(storeID), adminItem.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.List(ctx, auth.Actor{UserID: uuid.New(), Role: enums.RoleStore}, ListParams{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestReadStateAndUnreadCount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		it, err := svc.Notify(ctx, nil, NotifyInput{Type: enums.NotificationTypeSystem})
		require.NoError(t, err)
		ids = append(ids, it.ID)
	}

	require.NoError(t, svc.MarkRead(ctx, admin, ids[0]))
	require.NoError(t, svc.MarkRead(ctx, admin, ids[0]), "marking twice is harmless")
	n, err := svc.UnreadCount(ctx, admin)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	unread, err := svc.List(ctx, admin, ListParams{UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread.Items, 2)

	changed, err := svc.MarkAllRead(ctx, admin)
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed)
	n, _ = svc.UnreadCount(ctx, admin)
	assert.Zero(t, n)
}

func TestDeleteReadOlderThanKeepsUnread(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	old, err := svc.Notify(ctx, nil, NotifyInput{Type: enums.NotificationTypeSystem})
	require.NoError(t, err)
	_, err = svc.Notify(ctx, nil, NotifyInput{Type: enums.NotificationTypeSystem})
	require.NoError(t, err)
	require.NoError(t, svc.MarkRead(ctx, admin, old.ID))

	deleted, err := repo.DeleteReadOlderThan(ctx, nil, time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
	n, _ := svc.UnreadCount(ctx, admin)
	assert.EqualValues(t, 1, n)
}

func event(t *testing.T, eventType enums.OutboxEventType, data any) outbox.Event {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return outbox.Event{
		Row:      models.OutboxEvent{ID: uuid.New(), EventType: eventType},
		Envelope: outbox.PayloadEnvelope{Version: 1, EventID: uuid.NewString(), Data: raw},
	}
}

func TestHandlerNotifiesStoreAndAdminOnBounce(t *testing.T) {
	svc, _ := newTestService(t)
	h, err := NewEventHandler(svc)
	require.NoError(t, err)
	ctx := context.Background()
	storeID := uuid.New()

	ev := event(t, enums.EventChequeStatusChanged, outbox.ChequeStatusChangedEvent{
		ChequeID: uuid.New(), StoreID: storeID, ChequeNumber: "1009", AmountCents: 12345,
		From: enums.ChequeStatusCleared, To: enums.ChequeStatusBounced,
	})
	require.NoError(t, h.Handle(ctx, ev))
	require.NoError(t, h.Handle(ctx, ev), "redelivery must not duplicate")

	storeInbox, err := svc.List(ctx, storeActor(storeID), ListParams{})
	require.NoError(t, err)
	require.Len(t, storeInbox.Items, 1)
	assert.Contains(t, storeInbox.Items[0].Message, "$123.45")
	assert.Equal(t, enums.NotificationTypeChequeBounced, storeInbox.Items[0].Type)

	adminInbox, err := svc.List(ctx, admin, ListParams{})
	require.NoError(t, err)
	assert.Len(t, adminInbox.Items, 1)
}

func TestHandlerMapsStoreDecisions(t *testing.T) {
	svc, _ := newTestService(t)
	h, _ := NewEventHandler(svc)
	ctx := context.Background()
	storeID := uuid.New()

	require.NoError(t, h.Handle(ctx, event(t, enums.EventStoreRejected, outbox.StoreDecisionEvent{
		StoreID: storeID, Name: "Corner", Status: enums.ApprovalStatusRejected, Reason: "missing licence",
	})))
	require.NoError(t, h.Handle(ctx, event(t, enums.EventPaymentRecorded, outbox.PaymentRecordedEvent{
		PaymentID: uuid.New(), StoreID: storeID, AmountCents: 500, Method: enums.PaymentMethodCash,
	})))

	res, err := svc.List(ctx, storeActor(storeID), ListParams{})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, enums.NotificationTypePaymentReceived, res.Items[0].Type)
	assert.Contains(t, res.Items[1].Message, "missing licence")
}
