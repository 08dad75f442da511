package cheques

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
)

// Repository persists cheques and payments.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(tx *gorm.DB, c *models.Cheque) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if c == nil {
		return fmt.Errorf("cheque is required")
	}
	repo.EnsureID(&c.ID)
	return tx.Create(c).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cheque, error) {
	return findCheque(r.DB(ctx), id)
}

func (r *Repository) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Cheque, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	return findCheque(tx, id)
}

func findCheque(conn *gorm.DB, id uuid.UUID) (*models.Cheque, error) {
	var c models.Cheque
	if err := conn.First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Cheque, error) {
	var rows []models.Cheque
	err := r.DB(ctx).Order("cheque_date DESC").Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// TransitionStatus applies fields only while the cheque is still in from.
func (r *Repository) TransitionStatus(tx *gorm.DB, id uuid.UUID, from, to enums.ChequeStatus, fields map[string]any) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	updates := map[string]any{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	res := tx.Model(&models.Cheque{}).Where("id = ? AND status = ?", id, from).Updates(updates)
	return res.RowsAffected, res.Error
}

// PendingTotal sums cheques still waiting to clear.
func (r *Repository) PendingTotal(ctx context.Context) (count int64, cents int64, err error) {
	var row struct {
		N     int64
		Total int64
	}
	err = r.DB(ctx).Model(&models.Cheque{}).
		Select("COUNT(*) AS n, COALESCE(SUM(amount_cents), 0) AS total").
		Where("status = ?", enums.ChequeStatusPending).
		Scan(&row).Error
	return row.N, row.Total, err
}

func (r *Repository) CreatePayment(tx *gorm.DB, p *models.Payment) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	repo.EnsureID(&p.ID)
	return tx.Create(p).Error
}

func (r *Repository) ListPayments(ctx context.Context, storeID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.DB(ctx).Where("store_id = ?", storeID).Order("received_at DESC").Find(&rows).Error
	return rows, err
}
