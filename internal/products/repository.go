package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/db/models"
)

// Repository persists products, warehouses and vendors.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) CreateProduct(ctx context.Context, p *models.Product) error {
	if p == nil {
		return fmt.Errorf("product is required")
	}
	repo.EnsureID(&p.ID)
	// Select("*") keeps an explicit active=false from falling back to the column default.
	return r.DB(ctx).Select("*").Create(p).Error
}

func (r *Repository) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.DB(ctx).Save(p).Error
}

func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Delete(&models.Product{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.DB(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindProductsTx loads the products referenced by a set of line items.
func (r *Repository) FindProductsTx(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := tx.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.DB(ctx).Order("name ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) CreateWarehouse(ctx context.Context, w *models.Warehouse) error {
	repo.EnsureID(&w.ID)
	return r.DB(ctx).Create(w).Error
}

func (r *Repository) SaveWarehouse(ctx context.Context, w *models.Warehouse) error {
	return r.DB(ctx).Save(w).Error
}

func (r *Repository) FindWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var w models.Warehouse
	if err := r.DB(ctx).First(&w, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) ListWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	var rows []models.Warehouse
	err := r.DB(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) DeleteWarehouse(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Delete(&models.Warehouse{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *Repository) CreateVendor(ctx context.Context, v *models.Vendor) error {
	repo.EnsureID(&v.ID)
	return r.DB(ctx).Create(v).Error
}

func (r *Repository) SaveVendor(ctx context.Context, v *models.Vendor) error {
	return r.DB(ctx).Save(v).Error
}

func (r *Repository) FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var v models.Vendor
	if err := r.DB(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repository) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	var rows []models.Vendor
	err := r.DB(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) DeleteVendor(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Delete(&models.Vendor{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
