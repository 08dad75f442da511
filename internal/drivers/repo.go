package drivers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/db/models"
)

// Repository persists drivers and the trucks they own.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func byNumber(db *gorm.DB) *gorm.DB { return db.Order("number ASC") }

// Create inserts the driver and any trucks in one transaction.
func (r *Repository) Create(tx *gorm.DB, d *models.Driver) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if d == nil {
		return fmt.Errorf("driver is required")
	}
	repo.EnsureID(&d.ID)
	trucks := d.Trucks
	d.Trucks = nil
	if err := tx.Select("*").Omit("Trucks").Create(d).Error; err != nil {
		return err
	}
	for i := range trucks {
		trucks[i].DriverID = d.ID
		if err := r.CreateTruck(tx, &trucks[i]); err != nil {
			return err
		}
	}
	d.Trucks = trucks
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	var d models.Driver
	if err := r.DB(ctx).Preload("Trucks", byNumber).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Driver, error) {
	var rows []models.Driver
	err := r.DB(ctx).Preload("Trucks", byNumber).Order("name ASC").Find(&rows).Error
	return rows, err
}

// Save writes the driver profile columns only; trucks are managed separately.
func (r *Repository) Save(ctx context.Context, d *models.Driver) error {
	return r.DB(ctx).Omit("Trucks").Save(d).Error
}

func (r *Repository) Delete(tx *gorm.DB, id uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	if err := tx.Where("driver_id = ?", id).Delete(&models.Truck{}).Error; err != nil {
		return 0, err
	}
	res := tx.Delete(&models.Driver{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *Repository) CreateTruck(tx *gorm.DB, t *models.Truck) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	repo.EnsureID(&t.ID)
	return tx.Select("*").Create(t).Error
}

func (r *Repository) AddTruck(ctx context.Context, t *models.Truck) error {
	return r.CreateTruck(r.DB(ctx), t)
}

// FindTruck loads a truck only when it belongs to driverID.
func (r *Repository) FindTruck(ctx context.Context, driverID, truckID uuid.UUID) (*models.Truck, error) {
	var t models.Truck
	if err := r.DB(ctx).First(&t, "id = ? AND driver_id = ?", truckID, driverID).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) SaveTruck(ctx context.Context, t *models.Truck) error {
	return r.DB(ctx).Save(t).Error
}

func (r *Repository) DeleteTruck(ctx context.Context, driverID, truckID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Delete(&models.Truck{}, "id = ? AND driver_id = ?", truckID, driverID)
	return res.RowsAffected, res.Error
}

// ActiveTrucks returns exactly the active trucks owned by driverID.
func (r *Repository) ActiveTrucks(ctx context.Context, driverID uuid.UUID) ([]models.Truck, error) {
	var rows []models.Truck
	err := r.DB(ctx).Where("driver_id = ? AND active = ?", driverID, true).Order("number ASC").Find(&rows).Error
	return rows, err
}

// FindWithTrucksTx is used by trip planning to validate the assignment.
func (r *Repository) FindWithTrucksTx(tx *gorm.DB, id uuid.UUID) (*models.Driver, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var d models.Driver
	if err := tx.Preload("Trucks", byNumber).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
