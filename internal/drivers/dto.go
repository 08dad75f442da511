package drivers

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/db/models"
)

// LicenseWarningWindow is how far ahead an expiring license is flagged.
const LicenseWarningWindow = 30 * 24 * time.Hour

type TruckDTO struct {
	ID               uuid.UUID `json:"id"`
	DriverID         uuid.UUID `json:"driver_id"`
	Number           string    `json:"number"`
	CapacityWeightKg float64   `json:"capacity_weight_kg"`
	CapacityVolumeM3 float64   `json:"capacity_volume_m3"`
	Active           bool      `json:"active"`
}

func TruckFromModel(t models.Truck) TruckDTO {
	return TruckDTO{
		ID:               t.ID,
		DriverID:         t.DriverID,
		Number:           t.Number,
		CapacityWeightKg: t.CapacityWeightKg,
		CapacityVolumeM3: t.CapacityVolumeM3,
		Active:           t.Active,
	}
}

// DriverDTO carries the license flags computed at request time.
type DriverDTO struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	Email               *string    `json:"email,omitempty"`
	Phone               string     `json:"phone"`
	LicenseNumber       string     `json:"license_number"`
	LicenseExpiry       *time.Time `json:"license_expiry,omitempty"`
	LicenseState        *string    `json:"license_state,omitempty"`
	LicenseExpiringSoon bool       `json:"license_expiring_soon"`
	LicenseExpired      bool       `json:"license_expired"`
	Active              bool       `json:"active"`
	Trucks              []TruckDTO `json:"trucks"`
	CreatedAt           time.Time  `json:"created_at"`
}

func FromModel(d models.Driver, now time.Time) DriverDTO {
	trucks := make([]TruckDTO, 0, len(d.Trucks))
	for _, t := range d.Trucks {
		trucks = append(trucks, TruckFromModel(t))
	}
	return DriverDTO{
		ID:                  d.ID,
		Name:                d.Name,
		Email:               d.Email,
		Phone:               d.Phone,
		LicenseNumber:       d.LicenseNumber,
		LicenseExpiry:       d.LicenseExpiry,
		LicenseState:        d.LicenseState,
		LicenseExpiringSoon: expiringSoon(now)(d),
		LicenseExpired:      d.LicenseExpiry != nil && d.LicenseExpiry.Before(now),
		Active:              d.Active,
		Trucks:              trucks,
		CreatedAt:           d.CreatedAt,
	}
}

// DriverInput creates or replaces the driver profile.
type DriverInput struct {
	Name          string       `json:"name" validate:"required"`
	Email         *string      `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string       `json:"phone" validate:"required"`
	LicenseNumber string       `json:"license_number" validate:"required"`
	LicenseExpiry *time.Time   `json:"license_expiry,omitempty"`
	LicenseState  *string      `json:"license_state,omitempty"`
	Active        *bool        `json:"active,omitempty"`
	Trucks        []TruckInput `json:"trucks,omitempty" validate:"dive"`
}

type TruckInput struct {
	Number           string  `json:"number" validate:"required"`
	CapacityWeightKg float64 `json:"capacity_weight_kg" validate:"gt=0"`
	CapacityVolumeM3 float64 `json:"capacity_volume_m3" validate:"gt=0"`
	Active           *bool   `json:"active,omitempty"`
}

// ListFilter narrows the driver list.
type ListFilter struct {
	Search       string
	Active       *bool
	ExpiringSoon bool
}
