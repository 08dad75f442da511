package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/types"
)

// Order is a confirmed purchase by a store. OrderNumber is assigned by the
// database sequence and is never written by the application.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     int64             `gorm:"column:order_number;<-:false"`
	StoreID         uuid.UUID         `gorm:"column:store_id;type:uuid;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null"`
	BillingAddress  types.Address     `gorm:"column:billing_address;type:jsonb"`
	ShippingAddress types.Address     `gorm:"column:shipping_address;type:jsonb"`
	SubtotalCents   int64             `gorm:"column:subtotal_cents;not null"`
	TaxCents        int64             `gorm:"column:tax_cents;not null"`
	ShippingCents   int64             `gorm:"column:shipping_cents;not null"`
	DiscountCents   int64             `gorm:"column:discount_cents;not null"`
	TotalCents      int64             `gorm:"column:total_cents;not null"`
	DeliveryDate    *time.Time        `gorm:"column:delivery_date;type:date"`
	Notes           *string           `gorm:"column:notes"`
	CreatedBy       uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	PreOrderID      *uuid.UUID        `gorm:"column:preorder_id;type:uuid"`
	CancelledAt     *time.Time        `gorm:"column:cancelled_at"`
	DeliveredAt     *time.Time        `gorm:"column:delivered_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID;references:ID"`
}

// OrderItem captures the price in effect when the order was placed.
type OrderItem struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID         `gorm:"column:order_id;type:uuid;not null"`
	ProductID      uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	ProductName    string            `gorm:"column:product_name;not null"`
	Quantity       int               `gorm:"column:quantity;not null"`
	PricingType    enums.PricingType `gorm:"column:pricing_type;type:text;not null"`
	UnitPriceCents int64             `gorm:"column:unit_price_cents;not null"`
	LineTotalCents int64             `gorm:"column:line_total_cents;not null"`
}
