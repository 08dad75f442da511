package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryAvailability is the stock available for a product in an ISO week.
type InventoryAvailability struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	Week      string    `gorm:"column:week;primaryKey"`
	Quantity  int       `gorm:"column:quantity;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (InventoryAvailability) TableName() string { return "inventory_availability" }

// WorkOrderPick is the picked flag for one store/product line in a week.
// Seq is the highest client sequence applied so far.
type WorkOrderPick struct {
	Week      string     `gorm:"column:week;primaryKey"`
	StoreID   uuid.UUID  `gorm:"column:store_id;type:uuid;primaryKey"`
	ProductID uuid.UUID  `gorm:"column:product_id;type:uuid;primaryKey"`
	Picked    bool       `gorm:"column:picked;not null"`
	Seq       int64      `gorm:"column:seq;not null"`
	PickedBy  *uuid.UUID `gorm:"column:picked_by;type:uuid"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
