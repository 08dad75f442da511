package workorders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
)

// Line is one order item due in a week, joined with its store and product.
type Line struct {
	OrderID        uuid.UUID
	OrderCreatedAt time.Time
	StoreID        uuid.UUID
	StoreName      string
	ProductID      uuid.UUID
	ProductName    string
	SKU            string
	Unit           string
	UnitsPerBox    int
	Quantity       int
	PricingType    enums.PricingType
}

// Repository reads week demand and persists stock and pick state.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Lines returns items of non-cancelled orders delivering in [from, to),
// oldest order first.
func (r *Repository) Lines(ctx context.Context, from, to time.Time) ([]Line, error) {
	var rows []Line
	err := r.DB(ctx).
		Table("order_items AS i").
		Select(`o.id AS order_id, o.created_at AS order_created_at, o.store_id, COALESCE(s.name, '') AS store_name,
			i.product_id, i.product_name, COALESCE(p.sku, '') AS sku, COALESCE(p.unit, '') AS unit,
			COALESCE(p.units_per_box, 1) AS units_per_box, i.quantity, i.pricing_type`).
		Joins("JOIN orders AS o ON o.id = i.order_id").
		Joins("LEFT JOIN stores AS s ON s.id = o.store_id").
		Joins("LEFT JOIN products AS p ON p.id = i.product_id").
		Where("o.status <> ? AND o.delivery_date >= ? AND o.delivery_date < ?", enums.OrderStatusCancelled, from, to).
		Order("o.created_at ASC, o.id ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) Availability(ctx context.Context, week string) (map[uuid.UUID]int, error) {
	var rows []models.InventoryAvailability
	if err := r.DB(ctx).Where("week = ?", week).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.Quantity
	}
	return out, nil
}

func (r *Repository) SetAvailability(ctx context.Context, row models.InventoryAvailability) error {
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "week"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&row).Error
}

type pickKey struct {
	StoreID   uuid.UUID
	ProductID uuid.UUID
}

func (r *Repository) Picks(ctx context.Context, week string) (map[pickKey]models.WorkOrderPick, error) {
	var rows []models.WorkOrderPick
	if err := r.DB(ctx).Where("week = ?", week).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[pickKey]models.WorkOrderPick, len(rows))
	for _, row := range rows {
		out[pickKey{row.StoreID, row.ProductID}] = row
	}
	return out, nil
}

// ApplyPick upserts the pick only when its seq is newer than the stored one.
// It reports whether the row changed.
func (r *Repository) ApplyPick(ctx context.Context, pick models.WorkOrderPick) (bool, error) {
	res := r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "week"}, {Name: "store_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"picked", "seq", "picked_by", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "work_order_picks.seq < excluded.seq"},
		}},
	}).Select("*").Create(&pick)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
