package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
)

// Repository manages persistence for ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.LedgerEntry, error)
	Exists(ctx context.Context, referenceType string, referenceID uuid.UUID, entryType enums.LedgerEntryType) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at ASC").Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) Exists(ctx context.Context, referenceType string, referenceID uuid.UUID, entryType enums.LedgerEntryType) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("reference_type = ? AND reference_id = ? AND type = ?", referenceType, referenceID, entryType).
		Count(&n).Error
	return n > 0, err
}
