package orders

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/internal/products"
	"github.com/producehub/producehub-backend/pkg/db/models"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
)

// PricedItem is a line with its price captured from the catalog.
type PricedItem struct {
	ProductID   uuid.UUID
	ProductName string
	Line
}

// ProductIDs lists the distinct products referenced by items.
func ProductIDs(items []ItemInput) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	out := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		out = append(out, it.ProductID)
	}
	return out
}

// ValidateItems reports every malformed line at once.
func ValidateItems(items []ItemInput) map[string]string {
	invalid := map[string]string{}
	if len(items) == 0 {
		invalid["items"] = "at least one item is required"
	}
	for i, it := range items {
		prefix := fmt.Sprintf("items[%d].", i)
		if it.ProductID == uuid.Nil {
			invalid[prefix+"product_id"] = "required"
		}
		if it.Quantity < 1 {
			invalid[prefix+"quantity"] = "must be at least 1"
		}
		if !it.PricingType.IsValid() {
			invalid[prefix+"pricing_type"] = "must be box or unit"
		}
	}
	return invalid
}

// PriceItems resolves each line against the catalog. Unknown and inactive
// products are reported per line.
func PriceItems(catalog map[uuid.UUID]models.Product, items []ItemInput) ([]PricedItem, error) {
	invalid := map[string]string{}
	out := make([]PricedItem, 0, len(items))
	for i, it := range items {
		p, ok := catalog[it.ProductID]
		switch {
		case !ok:
			invalid[fmt.Sprintf("items[%d].product_id", i)] = "product not found"
			continue
		case !p.Active:
			invalid[fmt.Sprintf("items[%d].product_id", i)] = "product is inactive"
			continue
		}
		out = append(out, PricedItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Line: Line{
				Quantity:       it.Quantity,
				PricingType:    it.PricingType,
				UnitPriceCents: products.PriceFor(p, it.PricingType),
			},
		})
	}
	if err := pkgerrors.Fields("invalid order items", invalid); err != nil {
		return nil, err
	}
	return out, nil
}

// Lines strips the catalog reference for totalling.
func Lines(items []PricedItem) []Line {
	out := make([]Line, len(items))
	for i, it := range items {
		out[i] = it.Line
	}
	return out
}

func toOrderItems(items []PricedItem) []models.OrderItem {
	out := make([]models.OrderItem, len(items))
	for i, it := range items {
		out[i] = models.OrderItem{
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			PricingType:    it.PricingType,
			UnitPriceCents: it.UnitPriceCents,
			LineTotalCents: it.LineTotal(),
		}
	}
	return out
}
