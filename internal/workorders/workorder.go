package workorders

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
)

// WorkOrder is the pick plan for one week, grouped by product.
type WorkOrder struct {
	Week     string         `json:"week"`
	Products []ProductGroup `json:"products"`
	Totals   Totals         `json:"totals"`
}

type ProductGroup struct {
	ProductID   uuid.UUID  `json:"product_id"`
	ProductName string     `json:"product_name"`
	SKU         string     `json:"sku"`
	Unit        string     `json:"unit"`
	Available   int        `json:"available"`
	Stores      []StoreRow `json:"stores"`
	Totals      Totals     `json:"totals"`
}

type StoreRow struct {
	StoreID   uuid.UUID `json:"store_id"`
	StoreName string    `json:"store_name"`
	Ordered   int       `json:"ordered"`
	Allocated int       `json:"allocated"`
	Shortage  int       `json:"shortage"`
	Picked    bool      `json:"picked"`
}

type Totals struct {
	Ordered   int `json:"ordered"`
	Allocated int `json:"allocated"`
	Shortage  int `json:"shortage"`
	Picked    int `json:"picked_rows"`
	Rows      int `json:"rows"`
}

func (t *Totals) add(row StoreRow) {
	t.Ordered += row.Ordered
	t.Allocated += row.Allocated
	t.Shortage += row.Shortage
	t.Rows++
	if row.Picked {
		t.Picked++
	}
}

// units converts an order line to stock units; box lines expand by the
// product's units per box.
func units(l Line) int {
	if l.PricingType == enums.PricingTypeBox {
		per := l.UnitsPerBox
		if per < 1 {
			per = 1
		}
		return l.Quantity * per
	}
	return l.Quantity
}

// Build allocates available stock to order lines first come first served.
// lines must be sorted by order creation. A product without an
// availability row has nothing to allocate.
func Build(week Week, lines []Line, available map[uuid.UUID]int, picks map[pickKey]models.WorkOrderPick) *WorkOrder {
	type groupState struct {
		group     *ProductGroup
		remaining int
		rows      map[uuid.UUID]*StoreRow
		order     []uuid.UUID
	}
	groups := map[uuid.UUID]*groupState{}
	var productOrder []uuid.UUID

	for _, l := range lines {
		g, ok := groups[l.ProductID]
		if !ok {
			g = &groupState{
				group: &ProductGroup{
					ProductID:   l.ProductID,
					ProductName: l.ProductName,
					SKU:         l.SKU,
					Unit:        l.Unit,
					Available:   available[l.ProductID],
				},
				remaining: available[l.ProductID],
				rows:      map[uuid.UUID]*StoreRow{},
			}
			groups[l.ProductID] = g
			productOrder = append(productOrder, l.ProductID)
		}
		row, ok := g.rows[l.StoreID]
		if !ok {
			row = &StoreRow{StoreID: l.StoreID, StoreName: l.StoreName}
			row.Picked = picks[pickKey{l.StoreID, l.ProductID}].Picked
			g.rows[l.StoreID] = row
			g.order = append(g.order, l.StoreID)
		}
		qty := units(l)
		give := min(qty, g.remaining)
		g.remaining -= give
		row.Ordered += qty
		row.Allocated += give
		row.Shortage = row.Ordered - row.Allocated
	}

	wo := &WorkOrder{Week: week.String(), Products: make([]ProductGroup, 0, len(productOrder))}
	for _, id := range productOrder {
		g := groups[id]
		for _, storeID := range g.order {
			row := *g.rows[storeID]
			g.group.Stores = append(g.group.Stores, row)
			g.group.Totals.add(row)
			wo.Totals.add(row)
		}
		wo.Products = append(wo.Products, *g.group)
	}
	sort.SliceStable(wo.Products, func(i, j int) bool {
		return strings.ToLower(wo.Products[i].ProductName) < strings.ToLower(wo.Products[j].ProductName)
	})
	return wo
}

// Row finds the line for a store and product.
func (w *WorkOrder) Row(storeID, productID uuid.UUID) (StoreRow, bool) {
	for _, p := range w.Products {
		if p.ProductID != productID {
			continue
		}
		for _, r := range p.Stores {
			if r.StoreID == storeID {
				return r, true
			}
		}
	}
	return StoreRow{}, false
}
