package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/types"
)

// ItemInput is one requested line. Price is resolved server-side.
type ItemInput struct {
	ProductID   uuid.UUID         `json:"product_id" validate:"required"`
	Quantity    int               `json:"quantity" validate:"gte=1"`
	PricingType enums.PricingType `json:"pricing_type" validate:"required,oneof=box unit"`
}

// CreateInput places an order. StoreID is ignored for store callers.
type CreateInput struct {
	StoreID         uuid.UUID      `json:"store_id"`
	Items           []ItemInput    `json:"items" validate:"required,min=1,dive"`
	BillingAddress  *types.Address `json:"billing_address,omitempty"`
	ShippingAddress *types.Address `json:"shipping_address,omitempty"`
	DeliveryDate    *time.Time     `json:"delivery_date,omitempty"`
	Notes           *string        `json:"notes,omitempty"`
	ShippingCents   *int64         `json:"shipping_cents,omitempty"`
	DiscountCents   int64          `json:"discount_cents"`
}

type ItemDTO struct {
	ID             uuid.UUID         `json:"id"`
	ProductID      uuid.UUID         `json:"product_id"`
	ProductName    string            `json:"product_name"`
	Quantity       int               `json:"quantity"`
	PricingType    enums.PricingType `json:"pricing_type"`
	UnitPriceCents int64             `json:"unit_price_cents"`
	LineTotalCents int64             `json:"line_total_cents"`
}

// OrderDTO is the API shape of an order.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	OrderNumber     string            `json:"order_number"`
	StoreID         uuid.UUID         `json:"store_id"`
	StoreName       string            `json:"store_name,omitempty"`
	Status          enums.OrderStatus `json:"status"`
	BillingAddress  types.Address     `json:"billing_address"`
	ShippingAddress types.Address     `json:"shipping_address"`
	Totals
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	PreOrderID   *uuid.UUID `json:"preorder_id,omitempty"`
	CreatedBy    uuid.UUID  `json:"created_by"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	Items        []ItemDTO  `json:"items"`
}

func FromModel(o models.Order, storeName string) OrderDTO {
	items := make([]ItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemDTO{
			ID:             it.ID,
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			PricingType:    it.PricingType,
			UnitPriceCents: it.UnitPriceCents,
			LineTotalCents: it.LineTotalCents,
		})
	}
	return OrderDTO{
		ID:              o.ID,
		OrderNumber:     FormatNumber(o.OrderNumber),
		StoreID:         o.StoreID,
		StoreName:       storeName,
		Status:          o.Status,
		BillingAddress:  o.BillingAddress,
		ShippingAddress: o.ShippingAddress,
		Totals: Totals{
			SubtotalCents: o.SubtotalCents,
			TaxCents:      o.TaxCents,
			ShippingCents: o.ShippingCents,
			DiscountCents: o.DiscountCents,
			TotalCents:    o.TotalCents,
		},
		DeliveryDate: o.DeliveryDate,
		Notes:        o.Notes,
		PreOrderID:   o.PreOrderID,
		CreatedBy:    o.CreatedBy,
		CancelledAt:  o.CancelledAt,
		DeliveredAt:  o.DeliveredAt,
		CreatedAt:    o.CreatedAt,
		Items:        items,
	}
}

// ListFilter narrows order lists. From and To bound created_at inclusively.
type ListFilter struct {
	Search  string
	Status  *enums.OrderStatus
	StoreID *uuid.UUID
	From    *time.Time
	To      *time.Time
	Offset  int
	Limit   int
}

type ListResult struct {
	Items []OrderDTO `json:"items"`
	Total int        `json:"total"`
}

// StoreAddress derives the default billing and shipping address.
func StoreAddress(s models.Store) types.Address {
	return types.Address{
		Name:  s.Name,
		Line1: s.Address,
		City:  s.City,
		State: s.State,
		Zip:   s.ZipCode,
		Lat:   s.Lat,
		Lng:   s.Lng,
	}
}
