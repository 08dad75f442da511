package preorders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/orders"
	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/db/models"
)

// Repository persists pre-orders and their items.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(tx *gorm.DB, p *models.PreOrder) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if p == nil {
		return fmt.Errorf("pre-order is required")
	}
	repo.EnsureID(&p.ID)
	items := p.Items
	p.Items = nil
	if err := tx.Create(p).Error; err != nil {
		return err
	}
	if err := insertItems(tx, p.ID, items); err != nil {
		return err
	}
	p.Items = items
	return nil
}

func insertItems(tx *gorm.DB, id uuid.UUID, items []models.PreOrderItem) error {
	for i := range items {
		repo.EnsureID(&items[i].ID)
		items[i].PreOrderID = id
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PreOrder, error) {
	return find(r.DB(ctx), id)
}

func (r *Repository) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.PreOrder, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	return find(tx, id)
}

func find(conn *gorm.DB, id uuid.UUID) (*models.PreOrder, error) {
	var p models.PreOrder
	err := conn.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_name ASC") }).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListAll(ctx context.Context) ([]models.PreOrder, error) {
	var rows []models.PreOrder
	err := r.DB(ctx).Preload("Items").Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// ReplaceItems swaps the lines and totals while the pre-order is unconfirmed.
func (r *Repository) ReplaceItems(tx *gorm.DB, id uuid.UUID, items []models.PreOrderItem, totals orders.Totals, at time.Time) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.PreOrder{}).
		Where("id = ? AND confirmed = ?", id, false).
		Updates(map[string]any{
			"subtotal_cents": totals.SubtotalCents,
			"tax_cents":      totals.TaxCents,
			"shipping_cents": totals.ShippingCents,
			"discount_cents": totals.DiscountCents,
			"total_cents":    totals.TotalCents,
			"updated_at":     at,
		})
	if res.Error != nil || res.RowsAffected == 0 {
		return res.RowsAffected, res.Error
	}
	if err := tx.Where("preorder_id = ?", id).Delete(&models.PreOrderItem{}).Error; err != nil {
		return 0, err
	}
	return res.RowsAffected, insertItems(tx, id, items)
}

func (r *Repository) MarkConfirmed(tx *gorm.DB, id uuid.UUID, at time.Time) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.PreOrder{}).
		Where("id = ? AND confirmed = ?", id, false).
		Updates(map[string]any{"confirmed": true, "confirmed_at": at, "updated_at": at})
	return res.RowsAffected, res.Error
}

// MarkConverted links the produced order. It only succeeds once per pre-order.
func (r *Repository) MarkConverted(tx *gorm.DB, id, orderID uuid.UUID, at time.Time) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.PreOrder{}).
		Where("id = ? AND confirmed = ? AND converted_order_id IS NULL", id, true).
		Updates(map[string]any{"converted_order_id": orderID, "updated_at": at})
	return res.RowsAffected, res.Error
}
