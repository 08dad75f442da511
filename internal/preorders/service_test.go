package preorders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/orders"
	"github.com/producehub/producehub-backend/internal/products"
	"github.com/producehub/producehub-backend/internal/stores"
	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/db/dbtest"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/outbox"
)

var fixedNow = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

type recordingEmitter struct{ events []outbox.DomainEvent }

func (r *recordingEmitter) Emit(_ context.Context, _ *gorm.DB, e outbox.DomainEvent) error {
	r.events = append(r.events, e)
	return nil
}

type harness struct {
	svc     Service
	conn    *gorm.DB
	emitter *recordingEmitter
	store   models.Store
	melon   models.Product
	admin   auth.Actor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := dbtest.Open(t,
		dbtest.Stores, dbtest.Products,
		dbtest.Orders, dbtest.OrderNumberTrigger, dbtest.OrderItems,
		dbtest.PreOrders, dbtest.PreOrderItems,
	)
	store := models.Store{ID: uuid.New(), Name: "Fresh Mart", Address: "5 Oak", City: "Visalia", State: "CA", ZipCode: "93277", RegistrationRef: "REG-X", ApprovalStatus: enums.ApprovalStatusApproved, IsOrder: true}
	require.NoError(t, conn.Create(&store).Error)
	melon := models.Product{ID: uuid.New(), SKU: "MEL", Name: "Melon", Unit: "ea", UnitsPerBox: 6, BoxPriceCents: 1200, UnitPriceCents: 250, Active: true}
	require.NoError(t, conn.Create(&melon).Error)

	pricer, err := orders.NewPricer("0.1")
	require.NoError(t, err)
	emitter := &recordingEmitter{}
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(conn),
		Orders:  orders.NewRepository(conn),
		Catalog: products.NewRepository(conn),
		Stores:  stores.NewRepository(conn),
		Tx:      db.Wrap(conn),
		Outbox:  emitter,
		Pricer:  pricer,
		Now:     func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return &harness{
		svc:     svc,
		conn:    conn,
		emitter: emitter,
		store:   store,
		melon:   melon,
		admin:   auth.Actor{UserID: uuid.New(), Role: enums.RoleAdmin},
	}
}

func (h *harness) create(t *testing.T) *PreOrderDTO {
	t.Helper()
	dto, err := h.svc.Create(context.Background(), h.admin, orders.CreateInput{
		StoreID: h.store.ID,
		Items:   []orders.ItemInput{{ProductID: h.melon.ID, Quantity: 3, PricingType: enums.PricingTypeBox}},
	})
	require.NoError(t, err)
	return dto
}

func TestConvertProducesOneOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.create(t)
	assert.EqualValues(t, 3600, p.SubtotalCents)
	assert.EqualValues(t, 360, p.TaxCents)

	_, err := h.svc.Convert(ctx, h.admin, p.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "unconfirmed convert: %v", err)

	_, err = h.svc.Confirm(ctx, h.admin, p.ID)
	require.NoError(t, err)

	res, err := h.svc.Convert(ctx, h.admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, res.Order.Status)
	assert.Equal(t, "ORD-000001", res.Order.OrderNumber)
	assert.Equal(t, p.TotalCents, res.Order.TotalCents)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, p.Items[0].UnitPriceCents, res.Order.Items[0].UnitPriceCents)
	require.NotNil(t, res.PreOrder.ConvertedOrderID)
	assert.Equal(t, res.Order.ID, *res.PreOrder.ConvertedOrderID)
	assert.Equal(t, "5 Oak", res.Order.ShippingAddress.Line1)

	_, err = h.svc.Convert(ctx, h.admin, p.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "second convert: %v", err)

	var count int64
	require.NoError(t, h.conn.Model(&models.Order{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var types []enums.OutboxEventType
	for _, e := range h.emitter.events {
		types = append(types, e.EventType)
	}
	assert.Equal(t, []enums.OutboxEventType{enums.EventOrderPlaced, enums.EventPreOrderConverted}, types)
}

func TestUpdateItemsOnlyWhileUnconfirmed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.create(t)

	updated, err := h.svc.UpdateItems(ctx, h.admin, p.ID, UpdateItemsInput{
		Items: []orders.ItemInput{{ProductID: h.melon.ID, Quantity: 4, PricingType: enums.PricingTypeUnit}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.EqualValues(t, 1000, updated.SubtotalCents)
	assert.Equal(t, enums.PricingTypeUnit, updated.Items[0].PricingType)

	_, err = h.svc.Confirm(ctx, h.admin, p.ID)
	require.NoError(t, err)
	_, err = h.svc.Confirm(ctx, h.admin, p.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = h.svc.UpdateItems(ctx, h.admin, p.ID, UpdateItemsInput{
		Items: []orders.ItemInput{{ProductID: h.melon.ID, Quantity: 1, PricingType: enums.PricingTypeUnit}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestListFiltersAndStoreScope(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.create(t)
	h.create(t)
	_, err := h.svc.Confirm(ctx, h.admin, first.ID)
	require.NoError(t, err)

	confirmed := true
	res, err := h.svc.List(ctx, h.admin, ListFilter{Confirmed: &confirmed})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, first.ID, res.Items[0].ID)

	other := uuid.New()
	stranger := auth.Actor{UserID: uuid.New(), Role: enums.RoleStore, StoreID: &other}
	res, err = h.svc.List(ctx, stranger, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)

	_, err = h.svc.Get(ctx, stranger, first.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
