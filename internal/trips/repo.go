package trips

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

// Repository persists trips and their order assignments.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func byPosition(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }

func (r *Repository) Create(tx *gorm.DB, trip *models.Trip) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if trip == nil {
		return fmt.Errorf("trip is required")
	}
	repo.EnsureID(&trip.ID)
	assignments := trip.Orders
	trip.Orders = nil
	if err := tx.Create(trip).Error; err != nil {
		return err
	}
	for i := range assignments {
		assignments[i].TripID = trip.ID
	}
	if len(assignments) > 0 {
		if err := tx.Create(&assignments).Error; err != nil {
			return err
		}
	}
	trip.Orders = assignments
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	return find(r.DB(ctx), id)
}

func (r *Repository) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Trip, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	return find(tx, id)
}

func find(conn *gorm.DB, id uuid.UUID) (*models.Trip, error) {
	var t models.Trip
	if err := conn.Preload("Orders", byPosition).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Trip, error) {
	var rows []models.Trip
	err := r.DB(ctx).Preload("Orders", byPosition).
		Order("trip_date DESC").Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// AssignedOrders returns which of orderIDs already sit on a non-cancelled trip.
func (r *Repository) AssignedOrders(tx *gorm.DB, orderIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	out := map[uuid.UUID]uuid.UUID{}
	if len(orderIDs) == 0 {
		return out, nil
	}
	var rows []models.TripOrder
	err := tx.Table("trip_orders").
		Select("trip_orders.*").
		Joins("JOIN trips ON trips.id = trip_orders.trip_id").
		Where("trip_orders.order_id IN ? AND trips.status <> ?", orderIDs, enums.TripStatusCancelled).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.OrderID] = row.TripID
	}
	return out, nil
}

// TransitionStatus moves the trip only while it is still in from.
func (r *Repository) TransitionStatus(tx *gorm.DB, id uuid.UUID, from, to enums.TripStatus, at time.Time) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.Trip{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": at})
	return res.RowsAffected, res.Error
}

// OpenCount reports trips that are planned or on route.
func (r *Repository) OpenCount(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.Trip{}).
		Where("status IN ?", []enums.TripStatus{enums.TripStatusPlanned, enums.TripStatusOnRoute}).
		Count(&n).Error
	return n, err
}
