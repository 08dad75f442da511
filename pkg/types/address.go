package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a postal address stored as a JSON document column.
type Address struct {
	Name    string   `json:"name,omitempty"`
	Line1   string   `json:"line1" validate:"required"`
	Line2   string   `json:"line2,omitempty"`
	City    string   `json:"city" validate:"required"`
	State   string   `json:"state" validate:"required"`
	Zip     string   `json:"zip" validate:"required"`
	Country string   `json:"country,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// IsZero reports whether no address line was provided.
func (a Address) IsZero() bool {
	return strings.TrimSpace(a.Line1) == "" && strings.TrimSpace(a.City) == ""
}

// OneLine renders the address for geocoding and exports.
func (a Address) OneLine() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Line1, a.Line2, a.City, strings.TrimSpace(a.State + " " + a.Zip), a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Value encodes the address as JSON.
func (a Address) Value() (driver.Value, error) {
	if a.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}
	return string(b), nil
}

// Scan decodes a JSON address column.
func (a *Address) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*a = Address{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(raw, a)
}
