package stores

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
)

// Repository handles store persistence and the financial aggregates.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new store, inside tx when provided.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	repo.EnsureID(&store.ID)
	return r.Conn(ctx, tx).Create(store).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.DB(ctx).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *Repository) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Store, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var store models.Store
	if err := tx.First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Store, error) {
	var store models.Store
	if err := r.DB(ctx).Where("LOWER(email) = LOWER(?)", email).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// ListAll returns every store ordered by creation time. Filtering happens in
// the service so that derived columns can participate.
func (r *Repository) ListAll(ctx context.Context) ([]models.Store, error) {
	var rows []models.Store
	err := r.DB(ctx).Order("created_at ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) CountByApproval(ctx context.Context, status enums.ApprovalStatus) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.Store{}).Where("approval_status = ?", status).Count(&n).Error
	return n, err
}

func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Store, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Store
	err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// TransitionApproval moves a store out of from only when it is still in from.
// It returns the number of rows changed so callers can detect lost races.
func (r *Repository) TransitionApproval(tx *gorm.DB, id uuid.UUID, from, to enums.ApprovalStatus, fields map[string]any) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	updates := map[string]any{"approval_status": to, "updated_at": time.Now().UTC()}
	for k, v := range fields {
		updates[k] = v
	}
	res := tx.Model(&models.Store{}).
		Where("id = ? AND approval_status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *Repository) Update(ctx context.Context, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	return r.DB(ctx).Save(store).Error
}

func (r *Repository) UpdatePermissions(ctx context.Context, id uuid.UUID, isOrder, isProduct bool) (int64, error) {
	res := r.DB(ctx).Model(&models.Store{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_order": isOrder, "is_product": isProduct, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

type orderAggregate struct {
	StoreID        uuid.UUID
	OrderCount     int64
	SpentCents     int64
	PastTermsCents int64
}

type paidAggregate struct {
	StoreID   uuid.UUID
	PaidCents int64
}

// Totals aggregates orders, payments and cleared cheques per store. Orders
// created before termsCutoff count towards the overdue check.
func (r *Repository) Totals(ctx context.Context, termsCutoff time.Time) (map[uuid.UUID]Totals, error) {
	db := r.DB(ctx)
	out := map[uuid.UUID]Totals{}

	var orders []orderAggregate
	if err := db.Model(&models.Order{}).
		Select("store_id, COUNT(*) AS order_count, COALESCE(SUM(total_cents), 0) AS spent_cents, "+
			"COALESCE(SUM(CASE WHEN created_at < ? THEN total_cents ELSE 0 END), 0) AS past_terms_cents", termsCutoff).
		Where("status <> ?", enums.OrderStatusCancelled).
		Group("store_id").
		Scan(&orders).Error; err != nil {
		return nil, err
	}
	for _, row := range orders {
		out[row.StoreID] = Totals{OrderCount: row.OrderCount, SpentCents: row.SpentCents, PastTermsCents: row.PastTermsCents}
	}

	var payments []paidAggregate
	if err := db.Model(&models.Payment{}).
		Select("store_id, COALESCE(SUM(amount_cents), 0) AS paid_cents").
		Group("store_id").
		Scan(&payments).Error; err != nil {
		return nil, err
	}
	var cheques []paidAggregate
	if err := db.Model(&models.Cheque{}).
		Select("store_id, COALESCE(SUM(amount_cents), 0) AS paid_cents").
		Where("status = ?", enums.ChequeStatusCleared).
		Group("store_id").
		Scan(&cheques).Error; err != nil {
		return nil, err
	}
	for _, row := range append(payments, cheques...) {
		t := out[row.StoreID]
		t.PaidCents += row.PaidCents
		out[row.StoreID] = t
	}
	return out, nil
}

type versionRow struct {
	RowCount int64
	Latest   *string
}

// DataVersion fingerprints the tables store financials derive from. It
// changes whenever a row is added, removed or touched.
func (r *Repository) DataVersion(ctx context.Context) (uint64, error) {
	db := r.DB(ctx)
	h := fnv.New64a()
	sources := []struct {
		model  any
		column string
	}{
		{&models.Store{}, "updated_at"},
		{&models.Order{}, "updated_at"},
		{&models.Cheque{}, "updated_at"},
		{&models.Payment{}, "created_at"},
	}
	for _, src := range sources {
		var row versionRow
		if err := db.Model(src.model).
			Select(fmt.Sprintf("COUNT(*) AS row_count, MAX(%s) AS latest", src.column)).
			Scan(&row).Error; err != nil {
			return 0, err
		}
		latest := ""
		if row.Latest != nil {
			latest = *row.Latest
		}
		fmt.Fprintf(h, "%d|%s;", row.RowCount, latest)
	}
	return h.Sum64(), nil
}
