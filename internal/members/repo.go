package members

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/db/models"
)

// Repository persists members and their activity log.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(tx *gorm.DB, member *models.Member) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if member == nil {
		return fmt.Errorf("member is required")
	}
	repo.EnsureID(&member.ID)
	return tx.Create(member).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.DB(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *Repository) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Member, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var member models.Member
	if err := tx.First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	var member models.Member
	if err := r.DB(ctx).Where("LOWER(email) = LOWER(?)", email).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Member, error) {
	var rows []models.Member
	err := r.DB(ctx).Order("name ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) Save(tx *gorm.DB, member *models.Member) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Save(member).Error
}

func (r *Repository) Delete(tx *gorm.DB, id uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Delete(&models.Member{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// AppendActivity must run on the same tx as the mutation it records.
func (r *Repository) AppendActivity(tx *gorm.DB, entry *models.MemberActivity) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	repo.EnsureID(&entry.ID)
	return tx.Create(entry).Error
}

func (r *Repository) ListActivity(ctx context.Context, memberID uuid.UUID) ([]models.MemberActivity, error) {
	var rows []models.MemberActivity
	err := r.DB(ctx).
		Where("member_id = ?", memberID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}
