package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
)

// Repository persists orders and their line items.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts the order and its items. The order number is assigned by
// the database; reload with FindByIDTx to observe it.
func (r *Repository) Create(tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if order == nil {
		return fmt.Errorf("order is required")
	}
	repo.EnsureID(&order.ID)
	items := order.Items
	order.Items = nil
	if err := tx.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		repo.EnsureID(&items[i].ID)
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return findOrder(r.DB(ctx), id)
}

func (r *Repository) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	return findOrder(tx, id)
}

func findOrder(conn *gorm.DB, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := conn.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_name ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListAll returns orders newest first with their items.
func (r *Repository) ListAll(ctx context.Context) ([]models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).Preload("Items").
		Order("created_at DESC").Order("order_number DESC").
		Find(&rows).Error
	return rows, err
}

// CountByStatus returns order counts keyed by status. Statuses with no
// orders are absent.
func (r *Repository) CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	var rows []struct {
		Status enums.OrderStatus
		N      int64
	}
	if err := r.DB(ctx).Model(&models.Order{}).Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[enums.OrderStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

// FindByIDsTx loads a set of orders for trip assignment.
func (r *Repository) FindByIDsTx(tx *gorm.DB, ids []uuid.UUID) ([]models.Order, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Order
	err := tx.Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

type storeName struct {
	ID   uuid.UUID
	Name string
}

// StoreNames maps store ids to display names for list search.
func (r *Repository) StoreNames(ctx context.Context) (map[uuid.UUID]string, error) {
	var rows []storeName
	if err := r.DB(ctx).Model(&models.Store{}).Select("id, name").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]string, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Name
	}
	return out, nil
}

// TransitionStatus changes status only while the order is still in from.
func (r *Repository) TransitionStatus(tx *gorm.DB, id uuid.UUID, from, to enums.OrderStatus, at time.Time) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	updates := map[string]any{"status": to, "updated_at": at}
	switch to {
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = at
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = at
	}
	res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", id, from).Updates(updates)
	return res.RowsAffected, res.Error
}

// MarkDelivered moves shipped or processing orders on a completed trip to delivered.
func (r *Repository) MarkDelivered(tx *gorm.DB, ids []uuid.UUID, at time.Time) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := tx.Model(&models.Order{}).
		Where("id IN ? AND status IN ?", ids, []enums.OrderStatus{enums.OrderStatusProcessing, enums.OrderStatusShipped}).
		Updates(map[string]any{"status": enums.OrderStatusDelivered, "delivered_at": at, "updated_at": at})
	return res.RowsAffected, res.Error
}
