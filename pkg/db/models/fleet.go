package models

import (
	"time"

	"github.com/google/uuid"
)

// Driver is a managed record for a delivery driver and owns its trucks.
type Driver struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name          string     `gorm:"column:name;not null"`
	Email         *string    `gorm:"column:email"`
	Phone         string     `gorm:"column:phone;not null"`
	LicenseNumber string     `gorm:"column:license_number;not null"`
	LicenseExpiry *time.Time `gorm:"column:license_expiry;type:date"`
	LicenseState  *string    `gorm:"column:license_state"`
	Active        bool       `gorm:"column:active;not null"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Trucks []Truck `gorm:"foreignKey:DriverID;references:ID"`
}

type Truck struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	DriverID         uuid.UUID `gorm:"column:driver_id;type:uuid;not null"`
	Number           string    `gorm:"column:number;not null"`
	CapacityWeightKg float64   `gorm:"column:capacity_weight_kg;not null"`
	CapacityVolumeM3 float64   `gorm:"column:capacity_volume_m3;not null"`
	Active           bool      `gorm:"column:active;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
