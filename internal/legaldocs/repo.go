package legaldocs

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

// Repository persists store legal documents.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(tx *gorm.DB, d *models.LegalDocument) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if d == nil {
		return fmt.Errorf("legal document is required")
	}
	repo.EnsureID(&d.ID)
	return tx.Create(d).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LegalDocument, error) {
	var d models.LegalDocument
	if err := r.DB(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repository) List(ctx context.Context) ([]models.LegalDocument, error) {
	var rows []models.LegalDocument
	err := r.DB(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.LegalDocument, error) {
	var rows []models.LegalDocument
	err := r.DB(ctx).Where("store_id = ?", storeID).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// TransitionStatus applies fields only while the document is still in from.
func (r *Repository) TransitionStatus(tx *gorm.DB, id uuid.UUID, from, to enums.LegalDocumentStatus, fields map[string]any) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	updates := map[string]any{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	res := tx.Model(&models.LegalDocument{}).Where("id = ? AND status = ?", id, from).Updates(updates)
	return res.RowsAffected, res.Error
}

// FindExpiringUnnotified returns verified documents expiring in [from, to)
// that have not been warned about yet.
func (r *Repository) FindExpiringUnnotified(ctx context.Context, from, to time.Time) ([]models.LegalDocument, error) {
	var rows []models.LegalDocument
	err := r.DB(ctx).
		Where("status = ? AND expires_at >= ? AND expires_at < ? AND expiry_notified_at IS NULL", enums.LegalDocumentStatusVerified, from, to).
		Order("expires_at ASC").
		Find(&rows).Error
	return rows, err
}

// FindExpiredVerified returns verified documents whose expiry is before cutoff.
func (r *Repository) FindExpiredVerified(ctx context.Context, cutoff time.Time) ([]models.LegalDocument, error) {
	var rows []models.LegalDocument
	err := r.DB(ctx).
		Where("status = ? AND expires_at < ?", enums.LegalDocumentStatusVerified, cutoff).
		Order("expires_at ASC").
		Find(&rows).Error
	return rows, err
}

// MarkExpiryNotified stamps a document once; a second call affects no rows.
func (r *Repository) MarkExpiryNotified(tx *gorm.DB, id uuid.UUID, at time.Time) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.LegalDocument{}).
		Where("id = ? AND expiry_notified_at IS NULL", id).
		UpdateColumn("expiry_notified_at", at)
	return res.RowsAffected, res.Error
}
