package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a sellable catalog item priced per box and per unit.
type Product struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SKU            string    `gorm:"column:sku;not null;uniqueIndex"`
	Name           string    `gorm:"column:name;not null"`
	Unit           string    `gorm:"column:unit;not null"`
	UnitsPerBox    int       `gorm:"column:units_per_box;not null;default:1"`
	BoxPriceCents  int64     `gorm:"column:box_price_cents;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Active         bool      `gorm:"column:active;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
