package preorders

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/internal/orders"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/types"
)

// PreOrderDTO mirrors the order shape plus the confirmation state.
type PreOrderDTO struct {
	ID              uuid.UUID     `json:"id"`
	StoreID         uuid.UUID     `json:"store_id"`
	BillingAddress  types.Address `json:"billing_address"`
	ShippingAddress types.Address `json:"shipping_address"`
	orders.Totals
	DeliveryDate     *time.Time       `json:"delivery_date,omitempty"`
	Notes            *string          `json:"notes,omitempty"`
	Confirmed        bool             `json:"confirmed"`
	ConfirmedAt      *time.Time       `json:"confirmed_at,omitempty"`
	ConvertedOrderID *uuid.UUID       `json:"converted_order_id,omitempty"`
	CreatedBy        uuid.UUID        `json:"created_by"`
	CreatedAt        time.Time        `json:"created_at"`
	Items            []orders.ItemDTO `json:"items"`
}

func FromModel(p models.PreOrder) PreOrderDTO {
	items := make([]orders.ItemDTO, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, orders.ItemDTO{
			ID:             it.ID,
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			PricingType:    it.PricingType,
			UnitPriceCents: it.UnitPriceCents,
			LineTotalCents: it.LineTotalCents,
		})
	}
	return PreOrderDTO{
		ID:              p.ID,
		StoreID:         p.StoreID,
		BillingAddress:  p.BillingAddress,
		ShippingAddress: p.ShippingAddress,
		Totals: orders.Totals{
			SubtotalCents: p.SubtotalCents,
			TaxCents:      p.TaxCents,
			ShippingCents: p.ShippingCents,
			DiscountCents: p.DiscountCents,
			TotalCents:    p.TotalCents,
		},
		DeliveryDate:     p.DeliveryDate,
		Notes:            p.Notes,
		Confirmed:        p.Confirmed,
		ConfirmedAt:      p.ConfirmedAt,
		ConvertedOrderID: p.ConvertedOrderID,
		CreatedBy:        p.CreatedBy,
		CreatedAt:        p.CreatedAt,
		Items:            items,
	}
}

// UpdateItemsInput replaces the lines of an unconfirmed pre-order.
type UpdateItemsInput struct {
	Items         []orders.ItemInput `json:"items" validate:"required,min=1,dive"`
	ShippingCents *int64             `json:"shipping_cents,omitempty"`
	DiscountCents int64              `json:"discount_cents"`
}

// ListFilter narrows pre-order lists.
type ListFilter struct {
	StoreID   *uuid.UUID
	Confirmed *bool
	Converted *bool
	Offset    int
	Limit     int
}

type ListResult struct {
	Items []PreOrderDTO `json:"items"`
	Total int           `json:"total"`
}

// ConvertResult links the pre-order to the order it produced.
type ConvertResult struct {
	PreOrder PreOrderDTO     `json:"preorder"`
	Order    orders.OrderDTO `json:"order"`
}
