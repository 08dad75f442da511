package routeplanner

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/internal/trips"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/types"
)

type PlanDTO struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Stops     []types.RouteStop `json:"stops"`
	DistanceM *int64            `json:"distance_meters"`
	DurationS *int64            `json:"duration_seconds"`
	TripID    *uuid.UUID        `json:"trip_id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func FromModel(p models.RoutePlan) PlanDTO {
	stops := []types.RouteStop(p.Stops)
	if stops == nil {
		stops = []types.RouteStop{}
	}
	return PlanDTO{
		ID:        p.ID,
		Name:      p.Name,
		Stops:     stops,
		DistanceM: p.DistanceM,
		DurationS: p.DurationS,
		TripID:    p.TripID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// StopRef picks a warehouse, store or vendor to add to a plan.
type StopRef struct {
	Type  enums.StopType `json:"type"`
	RefID uuid.UUID      `json:"ref_id"`
}

func (r StopRef) key() string { return string(r.Type) + ":" + r.RefID.String() }

// RouteSummary is the result of a calculate or optimize call.
type RouteSummary struct {
	Plan            PlanDTO      `json:"plan"`
	DistanceMeters  int64        `json:"distance_meters"`
	DurationSeconds int64        `json:"duration_seconds"`
	Legs            []LegSummary `json:"legs"`
	Optimized       bool         `json:"optimized"`
}

type LegSummary struct {
	From            string `json:"from"`
	To              string `json:"to"`
	DistanceMeters  int64  `json:"distance_meters"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// SaveInput carries the wizard fields a plan does not hold itself.
type SaveInput struct {
	TripDate *time.Time        `json:"trip_date"`
	DriverID uuid.UUID         `json:"driver_id"`
	TruckID  uuid.UUID         `json:"truck_id"`
	Orders   []trips.OrderLoad `json:"orders"`
}

type SaveResult struct {
	Plan PlanDTO       `json:"plan"`
	Trip trips.TripDTO `json:"trip"`
}
