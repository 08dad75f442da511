package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
)

// ProductDTO is the catalog view returned to admins and stores.
type ProductDTO struct {
	ID             uuid.UUID `json:"id"`
	SKU            string    `json:"sku"`
	Name           string    `json:"name"`
	Unit           string    `json:"unit"`
	UnitsPerBox    int       `json:"units_per_box"`
	BoxPriceCents  int64     `json:"box_price_cents"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func FromModel(p models.Product) ProductDTO {
	return ProductDTO{
		ID:             p.ID,
		SKU:            p.SKU,
		Name:           p.Name,
		Unit:           p.Unit,
		UnitsPerBox:    p.UnitsPerBox,
		BoxPriceCents:  p.BoxPriceCents,
		UnitPriceCents: p.UnitPriceCents,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// PriceFor returns the per-line unit price captured when an order is placed.
// A box line is charged the box price; a unit line the unit price.
func PriceFor(p models.Product, pricing enums.PricingType) int64 {
	if pricing == enums.PricingTypeBox {
		return p.BoxPriceCents
	}
	return p.UnitPriceCents
}

// CreateProductInput holds the payload to create a product.
type CreateProductInput struct {
	SKU            string `json:"sku" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Unit           string `json:"unit" validate:"required"`
	UnitsPerBox    int    `json:"units_per_box" validate:"gte=1"`
	BoxPriceCents  int64  `json:"box_price_cents" validate:"gte=0"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"gte=0"`
	Active         *bool  `json:"active,omitempty"`
}

// UpdateProductInput holds optional product mutations.
type UpdateProductInput struct {
	SKU            *string `json:"sku,omitempty"`
	Name           *string `json:"name,omitempty"`
	Unit           *string `json:"unit,omitempty"`
	UnitsPerBox    *int    `json:"units_per_box,omitempty"`
	BoxPriceCents  *int64  `json:"box_price_cents,omitempty"`
	UnitPriceCents *int64  `json:"unit_price_cents,omitempty"`
	Active         *bool   `json:"active,omitempty"`
}

// ListFilter narrows the catalog.
type ListFilter struct {
	Search     string
	ActiveOnly bool
	Offset     int
	Limit      int
}

// ListResult is one page of the filtered catalog.
type ListResult struct {
	Items []ProductDTO `json:"items"`
	Total int          `json:"total"`
}

// LocationDTO describes a warehouse or vendor.
type LocationDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Address   string    `json:"address"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func FromWarehouse(w models.Warehouse) LocationDTO {
	return LocationDTO{ID: w.ID, Name: w.Name, Address: w.Address, Lat: w.Lat, Lng: w.Lng, CreatedAt: w.CreatedAt}
}

func FromVendor(v models.Vendor) LocationDTO {
	return LocationDTO{ID: v.ID, Name: v.Name, Phone: v.Phone, Address: v.Address, Lat: v.Lat, Lng: v.Lng, CreatedAt: v.CreatedAt}
}

// LocationInput creates or replaces a warehouse or vendor.
type LocationInput struct {
	Name    string   `json:"name" validate:"required"`
	Phone   *string  `json:"phone,omitempty"`
	Address string   `json:"address" validate:"required"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}
