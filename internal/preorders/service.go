package preorders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/orders"
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

type preOrderRepository interface {
	Create(tx *gorm.DB, p *models.PreOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PreOrder, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.PreOrder, error)
	ListAll(ctx context.Context) ([]models.PreOrder, error)
	ReplaceItems(tx *gorm.DB, id uuid.UUID, items []models.PreOrderItem, totals orders.Totals, at time.Time) (int64, error)
	MarkConfirmed(tx *gorm.DB, id uuid.UUID, at time.Time) (int64, error)
	MarkConverted(tx *gorm.DB, id, orderID uuid.UUID, at time.Time) (int64, error)
}

type orderPlacer interface {
	Create(tx *gorm.DB, order *models.Order) error
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error)
}

type catalog interface {
	FindProductsTx(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type storeReader interface {
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Store, error)
}

// Service manages provisional orders.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input orders.CreateInput) (*PreOrderDTO, error)
	Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*PreOrderDTO, error)
	List(ctx context.Context, actor auth.Actor, filter ListFilter) (*ListResult, error)
	UpdateItems(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateItemsInput) (*PreOrderDTO, error)
	Confirm(ctx context.Context, actor auth.Actor, id uuid.UUID) (*PreOrderDTO, error)
	Convert(ctx context.Context, actor auth.Actor, id uuid.UUID) (*ConvertResult, error)
}

// ServiceParams groups the pre-order service dependencies.
type ServiceParams struct {
	Repo             preOrderRepository
	Orders           orderPlacer
	Catalog          catalog
	Stores           storeReader
	Tx               db.TxRunner
	Outbox           outbox.Emitter
	Pricer           orders.Pricer
	ShippingFeeCents int64
	Now              func() time.Time
}

type service struct {
	repo     preOrderRepository
	orders   orderPlacer
	catalog  catalog
	stores   storeReader
	tx       db.TxRunner
	outbox   outbox.Emitter
	pricer   orders.Pricer
	shipping int64
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("pre-order repository required")
	case params.Orders == nil:
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
		repo:     params.Repo,
		orders:   params.Orders,
		catalog:  params.Catalog,
		stores:   params.Stores,
		tx:       params.Tx,
		outbox:   params.Outbox,
		pricer:   params.Pricer,
		shipping: params.ShippingFeeCents,
		now:      now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input orders.CreateInput) (*PreOrderDTO, error) {
	storeID := input.StoreID
	if actor.IsStore() {
		storeID = *actor.StoreID
	} else if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "pre-order placement denied")
	}
	invalid := orders.ValidateItems(input.Items)
	if storeID == uuid.Nil {
		invalid["store_id"] = "required"
	}
	if err := pkgerrors.Fields("invalid pre-order", invalid); err != nil {
		return nil, err
	}

	var result models.PreOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store, err := s.stores.FindByIDTx(tx, storeID)
		if err != nil {
			return repo.Translate(err, "store")
		}
		if store.ApprovalStatus != enums.ApprovalStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "store is not approved")
		}
		if actor.IsStore() && !store.IsOrder {
			return pkgerrors.New(pkgerrors.CodeForbidden, "store is not permitted to place orders")
		}
		items, totals, err := s.price(tx, input.Items, input.ShippingCents, input.DiscountCents)
		if err != nil {
			return err
		}
		p := &models.PreOrder{
			StoreID:         store.ID,
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
			Items:           items,
		}
		if err := s.repo.Create(tx, p); err != nil {
			return repo.Translate(err, "pre-order")
		}
		result = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(result)
	return &dto, nil
}

func (s *service) price(tx *gorm.DB, in []orders.ItemInput, shippingOverride *int64, discount int64) ([]models.PreOrderItem, orders.Totals, error) {
	cat, err := s.catalog.FindProductsTx(tx, orders.ProductIDs(in))
	if err != nil {
		return nil, orders.Totals{}, repo.Translate(err, "products")
	}
	priced, err := orders.PriceItems(cat, in)
	if err != nil {
		return nil, orders.Totals{}, err
	}
	shipping := s.shipping
	if shippingOverride != nil {
		shipping = *shippingOverride
	}
	totals, err := s.pricer.Compute(orders.Lines(priced), shipping, discount)
	if err != nil {
		return nil, orders.Totals{}, err
	}
	items := make([]models.PreOrderItem, len(priced))
	for i, it := range priced {
		items[i] = models.PreOrderItem{
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			PricingType:    it.PricingType,
			UnitPriceCents: it.UnitPriceCents,
			LineTotalCents: it.LineTotal(),
		}
	}
	return items, totals, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*PreOrderDTO, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "pre-order")
	}
	if !actor.CanAccessStore(p.StoreID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pre-order not found")
	}
	dto := FromModel(*p)
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, filter ListFilter) (*ListResult, error) {
	if actor.IsStore() {
		filter.StoreID = actor.StoreID
	} else if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "pre-order access denied")
	}
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, repo.Translate(err, "pre-orders")
	}
	matched := query.New[models.PreOrder]().
		Filter(query.EqualsIfSet(func(p models.PreOrder) uuid.UUID { return p.StoreID }, filter.StoreID)).
		Filter(query.EqualsIfSet(func(p models.PreOrder) bool { return p.Confirmed }, filter.Confirmed)).
		Filter(query.EqualsIfSet(func(p models.PreOrder) bool { return p.ConvertedOrderID != nil }, filter.Converted)).
		Apply(rows)
	items := make([]PreOrderDTO, 0, len(matched))
	for _, p := range query.Page(matched, filter.Offset, filter.Limit) {
		items = append(items, FromModel(p))
	}
	return &ListResult{Items: items, Total: len(matched)}, nil
}

func (s *service) UpdateItems(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateItemsInput) (*PreOrderDTO, error) {
	if err := pkgerrors.Fields("invalid pre-order", orders.ValidateItems(input.Items)); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	var result models.PreOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		current, err := s.load(tx, actor, id)
		if err != nil {
			return err
		}
		if current.Confirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "confirmed pre-orders cannot be edited")
		}
		items, totals, err := s.price(tx, input.Items, input.ShippingCents, input.DiscountCents)
		if err != nil {
			return err
		}
		changed, err := s.repo.ReplaceItems(tx, id, items, totals, now)
		if err != nil {
			return repo.Translate(err, "pre-order")
		}
		if changed == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "confirmed pre-orders cannot be edited")
		}
		updated, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return repo.Translate(err, "pre-order")
		}
		result = *updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(result)
	return &dto, nil
}

func (s *service) Confirm(ctx context.Context, actor auth.Actor, id uuid.UUID) (*PreOrderDTO, error) {
	now := s.now().UTC()
	var result models.PreOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.load(tx, actor, id); err != nil {
			return err
		}
		changed, err := s.repo.MarkConfirmed(tx, id, now)
		if err != nil {
			return repo.Translate(err, "pre-order")
		}
		if changed == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pre-order already confirmed")
		}
		updated, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return repo.Translate(err, "pre-order")
		}
		result = *updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(result)
	return &dto, nil
}

// Convert turns a confirmed pre-order into a pending order exactly once.
// The order insert and the conversion link share one transaction, so a
// lost race rolls the new order back.
func (s *service) Convert(ctx context.Context, actor auth.Actor, id uuid.UUID) (*ConvertResult, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins convert pre-orders")
	}
	now := s.now().UTC()
	var (
		converted models.PreOrder
		placed    models.Order
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		p, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return repo.Translate(err, "pre-order")
		}
		switch {
		case p.ConvertedOrderID != nil:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pre-order already converted").
				WithDetails(map[string]string{"converted_order_id": p.ConvertedOrderID.String()})
		case !p.Confirmed:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pre-order must be confirmed before conversion")
		}

		preorderID := p.ID
		order := &models.Order{
			StoreID:         p.StoreID,
			Status:          enums.OrderStatusPending,
			BillingAddress:  p.BillingAddress,
			ShippingAddress: p.ShippingAddress,
			SubtotalCents:   p.SubtotalCents,
			TaxCents:        p.TaxCents,
			ShippingCents:   p.ShippingCents,
			DiscountCents:   p.DiscountCents,
			TotalCents:      p.TotalCents,
			DeliveryDate:    p.DeliveryDate,
			Notes:           p.Notes,
			CreatedBy:       actor.UserID,
			PreOrderID:      &preorderID,
			Items:           orderItems(p.Items),
		}
		o, err := orders.PlaceTx(ctx, tx, s.orders, s.outbox, actor, order, now)
		if err != nil {
			return err
		}
		changed, err := s.repo.MarkConverted(tx, p.ID, o.ID, now)
		if err != nil {
			return repo.Translate(err, "pre-order")
		}
		if changed == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pre-order already converted")
		}
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPreOrderConverted,
			AggregateType: enums.AggregatePreOrder,
			AggregateID:   p.ID,
			Actor:         actor.Ref(),
			Data: outbox.PreOrderConvertedEvent{
				PreOrderID:  p.ID,
				OrderID:     o.ID,
				OrderNumber: orders.FormatNumber(o.OrderNumber),
				StoreID:     p.StoreID,
			},
			OccurredAt: now,
		})
		if err != nil {
			return err
		}
		p.ConvertedOrderID = &o.ID
		converted = *p
		placed = *o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ConvertResult{PreOrder: FromModel(converted), Order: orders.FromModel(placed, "")}, nil
}

func (s *service) load(tx *gorm.DB, actor auth.Actor, id uuid.UUID) (*models.PreOrder, error) {
	p, err := s.repo.FindByIDTx(tx, id)
	if err != nil {
		return nil, repo.Translate(err, "pre-order")
	}
	if !actor.CanAccessStore(p.StoreID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pre-order not found")
	}
	return p, nil
}

func orderItems(items []models.PreOrderItem) []models.OrderItem {
	out := make([]models.OrderItem, len(items))
	for i, it := range items {
		out[i] = models.OrderItem{
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			PricingType:    it.PricingType,
			UnitPriceCents: it.UnitPriceCents,
			LineTotalCents: it.LineTotalCents,
		}
	}
	return out
}

func addressOr(addr *types.Address, store models.Store) types.Address {
	if addr == nil || addr.IsZero() {
		return orders.StoreAddress(store)
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
