package trips

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/internal/drivers"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/types"
)

// Draft is the whole trip wizard submitted at once.
type Draft struct {
	RouteFrom string            `json:"route_from"`
	RouteTo   string            `json:"route_to"`
	Stops     []types.RouteStop `json:"stops,omitempty"`
	TripDate  *time.Time        `json:"trip_date"`
	DriverID  uuid.UUID         `json:"driver_id"`
	TruckID   uuid.UUID         `json:"truck_id"`
	Orders    []OrderLoad       `json:"orders"`
	DistanceM *int64            `json:"distance_meters,omitempty"`
	DurationS *int64            `json:"duration_seconds,omitempty"`
}

// OrderLoad is an order with its load footprint.
type OrderLoad struct {
	OrderID  uuid.UUID `json:"order_id"`
	WeightKg float64   `json:"weight_kg"`
	VolumeM3 float64   `json:"volume_m3"`
}

type TripOrderDTO struct {
	OrderID  uuid.UUID `json:"order_id"`
	WeightKg float64   `json:"weight_kg"`
	VolumeM3 float64   `json:"volume_m3"`
	Position int       `json:"position"`
}

type TripDTO struct {
	ID            uuid.UUID         `json:"id"`
	RouteFrom     string            `json:"route_from"`
	RouteTo       string            `json:"route_to"`
	Stops         []types.RouteStop `json:"stops"`
	TripDate      time.Time         `json:"trip_date"`
	DriverID      uuid.UUID         `json:"driver_id"`
	TruckID       uuid.UUID         `json:"truck_id"`
	Status        enums.TripStatus  `json:"status"`
	TotalWeightKg float64           `json:"total_weight_kg"`
	TotalVolumeM3 float64           `json:"total_volume_m3"`
	DistanceM     *int64            `json:"distance_meters,omitempty"`
	DurationS     *int64            `json:"duration_seconds,omitempty"`
	Orders        []TripOrderDTO    `json:"orders"`
	CreatedAt     time.Time         `json:"created_at"`
}

func FromModel(t models.Trip) TripDTO {
	orders := make([]TripOrderDTO, 0, len(t.Orders))
	for _, o := range t.Orders {
		orders = append(orders, TripOrderDTO{OrderID: o.OrderID, WeightKg: o.WeightKg, VolumeM3: o.VolumeM3, Position: o.Position})
	}
	stops := []types.RouteStop(t.Stops)
	if stops == nil {
		stops = []types.RouteStop{}
	}
	return TripDTO{
		ID:            t.ID,
		RouteFrom:     t.RouteFrom,
		RouteTo:       t.RouteTo,
		Stops:         stops,
		TripDate:      t.TripDate,
		DriverID:      t.DriverID,
		TruckID:       t.TruckID,
		Status:        t.Status,
		TotalWeightKg: t.TotalWeightKg,
		TotalVolumeM3: t.TotalVolumeM3,
		DistanceM:     t.DistanceM,
		DurationS:     t.DurationS,
		Orders:        orders,
		CreatedAt:     t.CreatedAt,
	}
}

// WizardOptions answers a driver selection. SelectedTruckID is always
// null so the client clears any previously chosen truck.
type WizardOptions struct {
	DriverID        uuid.UUID          `json:"driver_id"`
	Trucks          []drivers.TruckDTO `json:"trucks"`
	SelectedTruckID *uuid.UUID         `json:"selected_truck_id"`
}

// ListFilter narrows trip lists. Date matches the trip day.
type ListFilter struct {
	Search   string
	Status   *enums.TripStatus
	DriverID *uuid.UUID
	Date     *time.Time
	Offset   int
	Limit    int
}

type ListResult struct {
	Items []TripDTO `json:"items"`
	Total int       `json:"total"`
}
