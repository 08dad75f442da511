package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/enums"
)

// RouteStop is one ordered stop on a trip or route plan.
type RouteStop struct {
	RefID   uuid.UUID      `json:"ref_id"`
	Type    enums.StopType `json:"type"`
	Name    string         `json:"name"`
	Address string         `json:"address"`
	Lat     *float64       `json:"lat,omitempty"`
	Lng     *float64       `json:"lng,omitempty"`
}

// Key identifies a stop by reference and type.
func (s RouteStop) Key() string {
	return string(s.Type) + ":" + s.RefID.String()
}

// HasCoordinates reports whether the stop can be routed without geocoding.
func (s RouteStop) HasCoordinates() bool {
	return s.Lat != nil && s.Lng != nil
}

// RouteStops is stored as a JSON array column.
type RouteStops []RouteStop

func (r RouteStops) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]RouteStop(r))
	if err != nil {
		return nil, fmt.Errorf("route stops: %w", err)
	}
	return string(b), nil
}

func (r *RouteStops) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*r = RouteStops{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("route stops: unsupported scan type %T", value)
	}
	var stops []RouteStop
	if err := json.Unmarshal(raw, &stops); err != nil {
		return fmt.Errorf("route stops: %w", err)
	}
	*r = stops
	return nil
}
