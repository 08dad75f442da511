package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
)

type storeCounter interface {
	CountByApproval(ctx context.Context, status enums.ApprovalStatus) (int64, error)
}

type orderCounter interface {
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
}

type tripCounter interface {
	OpenCount(ctx context.Context) (int64, error)
}

type chequeTotaler interface {
	PendingTotal(ctx context.Context) (count int64, cents int64, err error)
}

type unreadCounter interface {
	UnreadCount(ctx context.Context, actor auth.Actor) (int64, error)
}

// Summary is the admin landing page.
type Summary struct {
	PendingStores       int64                       `json:"pending_stores"`
	OrdersByStatus      map[enums.OrderStatus]int64 `json:"orders_by_status"`
	OpenTrips           int64                       `json:"open_trips"`
	PendingCheques      int64                       `json:"pending_cheques"`
	PendingChequeCents  int64                       `json:"pending_cheque_cents"`
	UnreadNotifications int64                       `json:"unread_notifications"`
	GeneratedAt         time.Time                   `json:"generated_at"`
}

type ServiceParams struct {
	Stores        storeCounter
	Orders        orderCounter
	Trips         tripCounter
	Cheques       chequeTotaler
	Notifications unreadCounter
	Now           func() time.Time
}

type Service struct {
	stores        storeCounter
	orders        orderCounter
	trips         tripCounter
	cheques       chequeTotaler
	notifications unreadCounter
	now           func() time.Time
}

func NewService(p ServiceParams) (*Service, error) {
	switch {
	case p.Stores == nil:
		return nil, fmt.Errorf("store repository required")
	case p.Orders == nil:
		return nil, fmt.Errorf("order repository required")
	case p.Trips == nil:
		return nil, fmt.Errorf("trip repository required")
	case p.Cheques == nil:
		return nil, fmt.Errorf("cheque repository required")
	case p.Notifications == nil:
		return nil, fmt.Errorf("notification service required")
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Service{stores: p.Stores, orders: p.Orders, trips: p.Trips, cheques: p.Cheques, notifications: p.Notifications, now: now}, nil
}

// Summary runs the independent counts concurrently; the first failure
// cancels the rest.
func (s *Service) Summary(ctx context.Context, actor auth.Actor) (*Summary, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "dashboard requires an admin")
	}
	var out Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.stores.CountByApproval(gctx, enums.ApprovalStatusPending)
		out.PendingStores = n
		return repo.Translate(err, "stores")
	})
	g.Go(func() error {
		counts, err := s.orders.CountByStatus(gctx)
		if err != nil {
			return repo.Translate(err, "orders")
		}
		full := make(map[enums.OrderStatus]int64, len(counts))
		for _, st := range enums.AllOrderStatuses() {
			full[st] = counts[st]
		}
		out.OrdersByStatus = full
		return nil
	})
	g.Go(func() error {
		n, err := s.trips.OpenCount(gctx)
		out.OpenTrips = n
		return repo.Translate(err, "trips")
	})
	g.Go(func() error {
		n, cents, err := s.cheques.PendingTotal(gctx)
		out.PendingCheques, out.PendingChequeCents = n, cents
		return repo.Translate(err, "cheques")
	})
	g.Go(func() error {
		n, err := s.notifications.UnreadCount(gctx, actor)
		out.UnreadNotifications = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.GeneratedAt = s.now().UTC()
	return &out, nil
}
