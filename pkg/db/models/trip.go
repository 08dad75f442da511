package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/types"
)

// Trip is a planned delivery run for one driver and truck.
type Trip struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	RouteFrom     string           `gorm:"column:route_from;not null"`
	RouteTo       string           `gorm:"column:route_to;not null"`
	Stops         types.RouteStops `gorm:"column:stops;type:jsonb"`
	TripDate      time.Time        `gorm:"column:trip_date;type:date;not null"`
	DriverID      uuid.UUID        `gorm:"column:driver_id;type:uuid;not null"`
	TruckID       uuid.UUID        `gorm:"column:truck_id;type:uuid;not null"`
	Status        enums.TripStatus `gorm:"column:status;type:text;not null"`
	TotalWeightKg float64          `gorm:"column:total_weight_kg;not null"`
	TotalVolumeM3 float64          `gorm:"column:total_volume_m3;not null"`
	DistanceM     *int64           `gorm:"column:distance_meters"`
	DurationS     *int64           `gorm:"column:duration_seconds"`
	CreatedBy     uuid.UUID        `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`

	Orders []TripOrder `gorm:"foreignKey:TripID;references:ID"`
}

// TripOrder assigns an order to a trip with its load footprint.
type TripOrder struct {
	TripID   uuid.UUID `gorm:"column:trip_id;type:uuid;primaryKey"`
	OrderID  uuid.UUID `gorm:"column:order_id;type:uuid;primaryKey"`
	WeightKg float64   `gorm:"column:weight_kg;not null"`
	VolumeM3 float64   `gorm:"column:volume_m3;not null"`
	Position int       `gorm:"column:position;not null"`
}

// RoutePlan is a persisted route-planner draft.
type RoutePlan struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name      string           `gorm:"column:name;not null"`
	Stops     types.RouteStops `gorm:"column:stops;type:jsonb"`
	DistanceM *int64           `gorm:"column:distance_meters"`
	DurationS *int64           `gorm:"column:duration_seconds"`
	TripID    *uuid.UUID       `gorm:"column:trip_id;type:uuid"`
	CreatedBy uuid.UUID        `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
