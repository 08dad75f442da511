package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
)

type stubCounts struct {
	pending   int64
	orders    map[enums.OrderStatus]int64
	trips     int64
	cheques   int64
	cents     int64
	unread    int64
	tripsErr  error
	seenActor auth.Actor
}

func (s *stubCounts) CountByApproval(context.Context, enums.ApprovalStatus) (int64, error) {
	return s.pending, nil
}

func (s *stubCounts) CountByStatus(context.Context) (map[enums.OrderStatus]int64, error) {
	return s.orders, nil
}

func (s *stubCounts) OpenCount(context.Context) (int64, error) { return s.trips, s.tripsErr }

func (s *stubCounts) PendingTotal(context.Context) (int64, int64, error) {
	return s.cheques, s.cents, nil
}

func (s *stubCounts) UnreadCount(_ context.Context, actor auth.Actor) (int64, error) {
	s.seenActor = actor
	return s.unread, nil
}

func newTestService(t *testing.T, s *stubCounts) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Stores: s, Orders: s, Trips: s, Cheques: s, Notifications: s, Now: func() time.Time {
		return time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	}})
	require.NoError(t, err)
	return svc
}

var admin = auth.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}

func TestSummaryCollectsEveryCount(t *testing.T) {
	stub := &stubCounts{pending: 3, orders: map[enums.OrderStatus]int64{enums.OrderStatusPending: 4}, trips: 2, cheques: 5, cents: 125000, unread: 7}
	got, err := newTestService(t, stub).Summary(context.Background(), admin)
	require.NoError(t, err)

	assert.EqualValues(t, 3, got.PendingStores)
	assert.EqualValues(t, 4, got.OrdersByStatus[enums.OrderStatusPending])
	assert.Len(t, got.OrdersByStatus, len(enums.AllOrderStatuses()), "every status is present")
	assert.EqualValues(t, 2, got.OpenTrips)
	assert.EqualValues(t, 125000, got.PendingChequeCents)
	assert.EqualValues(t, 7, got.UnreadNotifications)
	assert.Equal(t, admin.UserID, stub.seenActor.UserID)
}

func TestSummaryFailsWhenAnyCountFails(t *testing.T) {
	stub := &stubCounts{tripsErr: errors.New("connection reset")}
	_, err := newTestService(t, stub).Summary(context.Background(), admin)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestSummaryIsAdminOnly(t *testing.T) {
	storeID := uuid.New()
	_, err := newTestService(t, &stubCounts{}).Summary(context.Background(), auth.Actor{Role: enums.RoleStore, StoreID: &storeID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}
