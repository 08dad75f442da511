package routeplanner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/db/models"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, plan *models.RoutePlan) error {
	repo.EnsureID(&plan.ID)
	return r.DB(ctx).Create(plan).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RoutePlan, error) {
	var p models.RoutePlan
	if err := r.DB(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) List(ctx context.Context) ([]models.RoutePlan, error) {
	var rows []models.RoutePlan
	err := r.DB(ctx).Order("updated_at DESC").Find(&rows).Error
	return rows, err
}

// SaveStops writes the stop list and route figures of an unsaved plan.
func (r *Repository) SaveStops(ctx context.Context, plan *models.RoutePlan, at time.Time) (int64, error) {
	res := r.DB(ctx).Model(&models.RoutePlan{}).
		Where("id = ? AND trip_id IS NULL", plan.ID).
		Updates(map[string]any{
			"name":             plan.Name,
			"stops":            plan.Stops,
			"distance_meters":  plan.DistanceM,
			"duration_seconds": plan.DurationS,
			"updated_at":       at,
		})
	return res.RowsAffected, res.Error
}

// AttachTrip links the plan to the trip it was saved as, once.
func (r *Repository) AttachTrip(ctx context.Context, id, tripID uuid.UUID, at time.Time) (int64, error) {
	res := r.DB(ctx).Model(&models.RoutePlan{}).
		Where("id = ? AND trip_id IS NULL", id).
		Updates(map[string]any{"trip_id": tripID, "updated_at": at})
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Delete(&models.RoutePlan{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
