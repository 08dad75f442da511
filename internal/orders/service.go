package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/outbox"
	"github.com/producehub/producehub-backend/pkg/query"
	"github.com/producehub/producehub-backend/pkg/types"
)

type orderRepository interface {
	Create(tx *gorm.DB, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	StoreNames(ctx context.Context) (map[uuid.UUID]string, error)
	TransitionStatus(tx *gorm.DB, id uuid.UUID, from, to enums.OrderStatus, at time.Time) (int64, error)
}

type catalog interface {
	FindProductsTx(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type storeReader interface {
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Store, error)
}

// Service exposes order placement and fulfilment.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*OrderDTO, error)
	Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, actor auth.Actor, filter ListFilter) (*ListResult, error)
	ExportRows(ctx context.Context, actor auth.Actor, filter ListFilter) ([]OrderDTO, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, to enums.OrderStatus) (*OrderDTO, error)
	Cancel(ctx context.Context, actor auth.Actor, id uuid.UUID) (*OrderDTO, error)
}

// ServiceParams groups the order service dependencies.
type ServiceParams struct {
	Repo             orderRepository
	Catalog          catalog
	Stores           storeReader
	Tx               db.TxRunner
	Outbox           outbox.Emitter
	Pricer           Pricer
	ShippingFeeCents int64
	MaxExportRows    int
	Now              func() time.Time
}

type service struct {
	repo      orderRepository
	catalog   catalog
	stores    storeReader
	tx        db.TxRunner
	outbox    outbox.Emitter
	pricer    Pricer
	shipping  int64
	maxExport int
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("order repository required")
	case params.Catalog == nil:
		return nil, fmt.Errorf("product catalog required")
	case params.Stores == nil:
		return nil, fmt.Errorf("store repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		catalog:   params.Catalog,
		stores:    params.Stores,
		tx:        params.Tx,
		outbox:    params.Outbox,
		pricer:    params.Pricer,
		shipping:  params.ShippingFeeCents,
		maxExport: params.MaxExportRows,
		now:       now,
	}, nil
}

// Create places an order. Admins order on behalf of any approved store;
// stores order for themselves only when the is_order permission is set.
func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*OrderDTO, error) {
	storeID := input.StoreID
	if actor.IsStore() {
		storeID = *actor.StoreID
	} else if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order placement denied")
	}

	invalid := ValidateItems(input.Items)
	if storeID == uuid.Nil {
		invalid["store_id"] = "required"
	}
	if err := pkgerrors.Fields("invalid order", invalid); err != nil {
		return nil, err
	}

	shipping := s.shipping
	if input.ShippingCents != nil {
		shipping = *input.ShippingCents
	}
	now := s.now().UTC()

	var result models.Order
	var storeName string
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store, err := s.stores.FindByIDTx(tx, storeID)
		if err != nil {
			return repo.Translate(err, "store")
		}
		if store.ApprovalStatus != enums.ApprovalStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "store is not approved").
				WithDetails(map[string]string{"approval_status": string(store.ApprovalStatus)})
		}
		if actor.IsStore() && !store.IsOrder {
			return pkgerrors.New(pkgerrors.CodeForbidden, "store is not permitted to place orders")
		}

		cat, err := s.catalog.FindProductsTx(tx, ProductIDs(input.Items))
		if err != nil {
			return repo.Translate(err, "products")
		}
		priced, err := PriceItems(cat, input.Items)
		if err != nil {
			return err
		}
		totals, err := s.pricer.Compute(Lines(priced), shipping, input.DiscountCents)
		if err != nil {
			return err
		}

		order := &models.Order{
			StoreID:         store.ID,
			Status:          enums.OrderStatusPending,
			BillingAddress:  addressOr(input.BillingAddress, *store),
			ShippingAddress: addressOr(input.ShippingAddress, *store),
			SubtotalCents:   totals.SubtotalCents,
			TaxCents:        totals.TaxCents,
			ShippingCents:   totals.ShippingCents,
			DiscountCents:   totals.DiscountCents,
			TotalCents:      totals.TotalCents,
			DeliveryDate:    input.DeliveryDate,
			Notes:           trimmed(input.Notes),
			CreatedBy:       actor.UserID,
			Items:           toOrderItems(priced),
		}
		placed, err := PlaceTx(ctx, tx, s.repo, s.outbox, actor, order, now)
		if err != nil {
			return err
		}
		result = *placed
		storeName = store.Name
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(result, storeName)
	return &dto, nil
}

type placer interface {
	Create(tx *gorm.DB, order *models.Order) error
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error)
}

// PlaceTx inserts order inside tx, reloads it to pick up the sequence
// number and emits order_placed.
func PlaceTx(ctx context.Context, tx *gorm.DB, r placer, emitter outbox.Emitter, actor auth.Actor, order *models.Order, now time.Time) (*models.Order, error) {
	if err := r.Create(tx, order); err != nil {
		return nil, repo.Translate(err, "order")
	}
	placed, err := r.FindByIDTx(tx, order.ID)
	if err != nil {
		return nil, repo.Translate(err, "order")
	}
	err = emitter.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   placed.ID,
		Actor:         actor.Ref(),
		Data: outbox.OrderPlacedEvent{
			OrderID:     placed.ID,
			OrderNumber: FormatNumber(placed.OrderNumber),
			StoreID:     placed.StoreID,
			TotalCents:  placed.TotalCents,
		},
		OccurredAt: now,
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "order")
	}
	if !actor.CanAccessStore(order.StoreID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	names, err := s.repo.StoreNames(ctx)
	if err != nil {
		return nil, repo.Translate(err, "stores")
	}
	dto := FromModel(*order, names[order.StoreID])
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, filter ListFilter) (*ListResult, error) {
	rows, err := s.filtered(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	return &ListResult{Items: query.Page(rows, filter.Offset, filter.Limit), Total: len(rows)}, nil
}

// ExportRows returns the List rows for filter without pagination.
func (s *service) ExportRows(ctx context.Context, actor auth.Actor, filter ListFilter) ([]OrderDTO, error) {
	rows, err := s.filtered(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	if s.maxExport > 0 && len(rows) > s.maxExport {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "export exceeds row limit").
			WithDetails(map[string]string{"rows": fmt.Sprintf("%d rows requested, limit %d", len(rows), s.maxExport)})
	}
	return rows, nil
}

func (s *service) filtered(ctx context.Context, actor auth.Actor, filter ListFilter) ([]OrderDTO, error) {
	if actor.IsStore() {
		filter.StoreID = actor.StoreID
	} else if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order access denied")
	}
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, repo.Translate(err, "orders")
	}
	names, err := s.repo.StoreNames(ctx)
	if err != nil {
		return nil, repo.Translate(err, "stores")
	}
	dtos := make([]OrderDTO, 0, len(rows))
	for _, o := range rows {
		dtos = append(dtos, FromModel(o, names[o.StoreID]))
	}

	return query.New[OrderDTO]().
		Filter(query.Search(filter.Search,
			func(o OrderDTO) string { return o.OrderNumber },
			func(o OrderDTO) string { return o.StoreName },
		)).
		Filter(query.EqualsIfSet(func(o OrderDTO) enums.OrderStatus { return o.Status }, filter.Status)).
		Filter(query.EqualsIfSet(func(o OrderDTO) uuid.UUID { return o.StoreID }, filter.StoreID)).
		Filter(createdBetween(filter.From, filter.To)).
		Apply(dtos), nil
}

func createdBetween(from, to *time.Time) query.Predicate[OrderDTO] {
	return func(o OrderDTO) bool {
		if from != nil && o.CreatedAt.Before(*from) {
			return false
		}
		if to != nil && o.CreatedAt.After(*to) {
			return false
		}
		return true
	}
}

func (s *service) UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, to enums.OrderStatus) (*OrderDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins change order status")
	}
	if !to.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]string{"status": "unknown status"})
	}
	return s.transition(ctx, actor, id, to, nil)
}

// Cancel lets admins cancel pending or processing orders, and stores cancel
// their own orders while still pending.
func (s *service) Cancel(ctx context.Context, actor auth.Actor, id uuid.UUID) (*OrderDTO, error) {
	guard := func(o *models.Order) error {
		if actor.IsAdmin() {
			return nil
		}
		if !actor.OwnsStore(o.StoreID) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if o.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
				WithDetails(map[string]string{"status": string(o.Status)})
		}
		return nil
	}
	return s.transition(ctx, actor, id, enums.OrderStatusCancelled, guard)
}

func (s *service) transition(ctx context.Context, actor auth.Actor, id uuid.UUID, to enums.OrderStatus, guard func(*models.Order) error) (*OrderDTO, error) {
	now := s.now().UTC()
	var result models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return repo.Translate(err, "order")
		}
		if guard != nil {
			if err := guard(current); err != nil {
				return err
			}
		}
		from := current.Status
		if !from.CanTransitionTo(to) {
			return transitionConflict(from, to)
		}
		changed, err := s.repo.TransitionStatus(tx, id, from, to, now)
		if err != nil {
			return repo.Translate(err, "order")
		}
		if changed == 0 {
			return transitionConflict(from, to)
		}
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   id,
			Actor:         actor.Ref(),
			Data: outbox.OrderStatusChangedEvent{
				OrderID:     id,
				OrderNumber: FormatNumber(current.OrderNumber),
				StoreID:     current.StoreID,
				TotalCents:  current.TotalCents,
				From:        from,
				To:          to,
			},
			OccurredAt: now,
		})
		if err != nil {
			return err
		}
		updated, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return repo.Translate(err, "order")
		}
		result = *updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(result, "")
	return &dto, nil
}

func transitionConflict(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "illegal order status transition").
		WithDetails(map[string]string{"from": string(from), "to": string(to)})
}

func addressOr(addr *types.Address, store models.Store) types.Address {
	if addr == nil || addr.IsZero() {
		return StoreAddress(store)
	}
	return *addr
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
