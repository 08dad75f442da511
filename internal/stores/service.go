package stores

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/outbox"
	"github.com/producehub/producehub-backend/pkg/query"
)

type storeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Store, error)
	ListAll(ctx context.Context) ([]models.Store, error)
	TransitionApproval(tx *gorm.DB, id uuid.UUID, from, to enums.ApprovalStatus, fields map[string]any) (int64, error)
	Update(ctx context.Context, store *models.Store) error
	UpdatePermissions(ctx context.Context, id uuid.UUID, isOrder, isProduct bool) (int64, error)
	Totals(ctx context.Context, termsCutoff time.Time) (map[uuid.UUID]Totals, error)
	DataVersion(ctx context.Context) (uint64, error)
}

// Service exposes store onboarding, approval and reporting.
type Service interface {
	Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*StoreDTO, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	ListPending(ctx context.Context, search string) ([]StoreDTO, error)
	ExportRows(ctx context.Context, filter ListFilter) ([]StoreDTO, error)
	Analytics(ctx context.Context, filter ListFilter) (*AnalyticsSummary, error)
	Approve(ctx context.Context, actor auth.Actor, id uuid.UUID) (*StoreDTO, error)
	Reject(ctx context.Context, actor auth.Actor, id uuid.UUID, reason string) (*StoreDTO, error)
	UpdatePermissions(ctx context.Context, id uuid.UUID, input PermissionsInput) (*StoreDTO, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateProfileInput) (*StoreDTO, error)
}

// ServiceParams groups the store service dependencies.
type ServiceParams struct {
	Repo             storeRepository
	Tx               db.TxRunner
	Outbox           outbox.Emitter
	PaymentTermsDays int
	MaxExportRows    int
	Now              func() time.Time
}

type service struct {
	repo      storeRepository
	tx        db.TxRunner
	outbox    outbox.Emitter
	terms     time.Duration
	maxExport int
	now       func() time.Time
	analytics query.Memo[*AnalyticsSummary]
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	terms := params.PaymentTermsDays
	if terms <= 0 {
		terms = 30
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		outbox:    params.Outbox,
		terms:     time.Duration(terms) * 24 * time.Hour,
		maxExport: params.MaxExportRows,
		now:       now,
	}, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*StoreDTO, error) {
	if !actor.CanAccessStore(id) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store access denied")
	}
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "store")
	}
	return s.withFinancials(ctx, *store)
}

func (s *service) withFinancials(ctx context.Context, store models.Store) (*StoreDTO, error) {
	totals, err := s.repo.Totals(ctx, s.termsCutoff())
	if err != nil {
		return nil, repo.Translate(err, "store financials")
	}
	dto := FromModel(store, Derive(totals[store.ID]))
	return &dto, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	rows, err := s.filtered(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListResult{Items: query.Page(rows, filter.Offset, filter.Limit), Total: len(rows)}, nil
}

func (s *service) ListPending(ctx context.Context, search string) ([]StoreDTO, error) {
	pending := enums.ApprovalStatusPending
	return s.filtered(ctx, ListFilter{Search: search, ApprovalStatus: &pending, Sort: SortByCreated})
}

// ExportRows returns the same rows as List for filter without pagination.
func (s *service) ExportRows(ctx context.Context, filter ListFilter) ([]StoreDTO, error) {
	rows, err := s.filtered(ctx, filter)
	if err != nil {
		return nil, err
	}
	if s.maxExport > 0 && len(rows) > s.maxExport {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "export exceeds row limit").
			WithDetails(map[string]string{"rows": fmt.Sprintf("%d rows requested, limit %d", len(rows), s.maxExport)})
	}
	return rows, nil
}

func (s *service) Analytics(ctx context.Context, filter ListFilter) (*AnalyticsSummary, error) {
	version, err := s.repo.DataVersion(ctx)
	if err != nil {
		return nil, repo.Translate(err, "store analytics")
	}
	key := query.MemoKey{Version: version, Search: strings.TrimSpace(filter.Search), Filters: filterKey(filter) + "|" + s.now().UTC().Format(time.DateOnly)}
	return s.analytics.Get(key, func() (*AnalyticsSummary, error) {
		rows, err := s.filtered(ctx, filter)
		if err != nil {
			return nil, err
		}
		summary := &AnalyticsSummary{StoreCount: len(rows), ByPaymentStatus: map[enums.PaymentStatus]int{}, Stores: rows}
		for _, row := range rows {
			summary.TotalSpentCents += row.TotalSpentCents
			summary.TotalPaidCents += row.TotalPaidCents
			summary.BalanceDueCents += row.BalanceDueCents
			summary.ByPaymentStatus[row.PaymentStatus]++
		}
		return summary, nil
	})
}

func (s *service) Approve(ctx context.Context, actor auth.Actor, id uuid.UUID) (*StoreDTO, error) {
	now := s.now().UTC()
	var updated *models.Store
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		changed, err := s.repo.TransitionApproval(tx, id, enums.ApprovalStatusPending, enums.ApprovalStatusApproved, map[string]any{
			"approved_at":      now,
			"approved_by":      actor.UserID,
			"rejection_reason": nil,
		})
		if err != nil {
			return repo.Translate(err, "store")
		}
		if changed == 0 {
			return s.transitionConflict(tx, id)
		}
		updated, err = s.repo.FindByIDTx(tx, id)
		if err != nil {
			return repo.Translate(err, "store")
		}
		updated.ApprovalStatus = enums.ApprovalStatusApproved
		updated.ApprovedAt = &now
		updated.ApprovedBy = &actor.UserID
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStoreApproved,
			AggregateType: enums.AggregateStore,
			AggregateID:   id,
			Actor:         actor.Ref(),
			Data:          outbox.StoreDecisionEvent{StoreID: id, Name: updated.Name, Status: enums.ApprovalStatusApproved},
		})
	})
	if err != nil {
		return nil, err
	}
	s.analytics.Invalidate()
	return s.withFinancials(ctx, *updated)
}

func (s *service) Reject(ctx context.Context, actor auth.Actor, id uuid.UUID, reason string) (*StoreDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.Fields("rejection reason is required", map[string]string{"reason": "required"})
	}
	var updated *models.Store
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		changed, err := s.repo.TransitionApproval(tx, id, enums.ApprovalStatusPending, enums.ApprovalStatusRejected, map[string]any{
			"rejection_reason": reason,
		})
		if err != nil {
			return repo.Translate(err, "store")
		}
		if changed == 0 {
			return s.transitionConflict(tx, id)
		}
		updated, err = s.repo.FindByIDTx(tx, id)
		if err != nil {
			return repo.Translate(err, "store")
		}
		updated.ApprovalStatus = enums.ApprovalStatusRejected
		updated.RejectionReason = &reason
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStoreRejected,
			AggregateType: enums.AggregateStore,
			AggregateID:   id,
			Actor:         actor.Ref(),
			Data:          outbox.StoreDecisionEvent{StoreID: id, Name: updated.Name, Status: enums.ApprovalStatusRejected, Reason: reason},
		})
	})
	if err != nil {
		return nil, err
	}
	s.analytics.Invalidate()
	return s.withFinancials(ctx, *updated)
}

// transitionConflict explains why a conditional approval update matched no row.
func (s *service) transitionConflict(tx *gorm.DB, id uuid.UUID) error {
	store, err := s.repo.FindByIDTx(tx, id)
	if err != nil {
		return repo.Translate(err, "store")
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "store is no longer pending approval").
		WithDetails(map[string]string{"approval_status": string(store.ApprovalStatus)})
}

func (s *service) UpdatePermissions(ctx context.Context, id uuid.UUID, input PermissionsInput) (*StoreDTO, error) {
	changed, err := s.repo.UpdatePermissions(ctx, id, input.IsOrder, input.IsProduct)
	if err != nil {
		return nil, repo.Translate(err, "store")
	}
	if changed == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return s.Get(ctx, auth.Actor{Role: enums.RoleAdmin}, id)
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateProfileInput) (*StoreDTO, error) {
	if !actor.CanAccessStore(id) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store access denied")
	}
	if input.CreditLimitCents != nil && !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can change credit limits")
	}
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "store")
	}

	invalid := map[string]string{}
	assignText(&store.Name, input.Name, "name", invalid)
	assignText(&store.OwnerName, input.OwnerName, "owner_name", invalid)
	assignText(&store.Phone, input.Phone, "phone", invalid)
	assignText(&store.Address, input.Address, "address", invalid)
	assignText(&store.City, input.City, "city", invalid)
	assignText(&store.State, input.State, "state", invalid)
	assignText(&store.ZipCode, input.ZipCode, "zip_code", invalid)
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if !strings.Contains(email, "@") {
			invalid["email"] = "must be a valid email"
		} else {
			store.Email = email
		}
	}
	if input.Lat != nil {
		store.Lat = input.Lat
	}
	if input.Lng != nil {
		store.Lng = input.Lng
	}
	if input.CreditLimitCents != nil {
		if *input.CreditLimitCents < 0 {
			invalid["credit_limit_cents"] = "must be zero or greater"
		} else {
			store.CreditLimitCents = *input.CreditLimitCents
		}
	}
	if err := pkgerrors.Fields("invalid store profile", invalid); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, repo.Translate(err, "store")
	}
	s.analytics.Invalidate()
	return s.Get(ctx, actor, id)
}

func assignText(dst *string, value *string, field string, invalid map[string]string) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		invalid[field] = "cannot be blank"
		return
	}
	*dst = trimmed
}

// filtered loads every store, derives financials and applies filter.
func (s *service) filtered(ctx context.Context, filter ListFilter) ([]StoreDTO, error) {
	stores, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, repo.Translate(err, "store")
	}
	totals, err := s.repo.Totals(ctx, s.termsCutoff())
	if err != nil {
		return nil, repo.Translate(err, "store financials")
	}
	rows := make([]StoreDTO, 0, len(stores))
	for _, st := range stores {
		rows = append(rows, FromModel(st, Derive(totals[st.ID])))
	}
	return Collection(filter).Apply(rows), nil
}

func (s *service) termsCutoff() time.Time {
	return s.now().UTC().Add(-s.terms)
}

// Collection builds the filter and order shared by every store listing.
func Collection(filter ListFilter) query.Collection[StoreDTO] {
	c := query.New[StoreDTO]().
		Filter(query.Search(filter.Search,
			func(s StoreDTO) string { return s.Name },
			func(s StoreDTO) string { return s.OwnerName },
			func(s StoreDTO) string { return s.Email },
			func(s StoreDTO) string { return s.Phone },
		)).
		Filter(query.EqualsIfSet(func(s StoreDTO) enums.ApprovalStatus { return s.ApprovalStatus }, filter.ApprovalStatus)).
		Filter(query.EqualsIfSet(func(s StoreDTO) enums.PaymentStatus { return s.PaymentStatus }, filter.PaymentStatus))
	if state := strings.TrimSpace(filter.State); state != "" {
		c = c.Filter(func(s StoreDTO) bool { return strings.EqualFold(s.State, state) })
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		c = c.Filter(func(s StoreDTO) bool { return strings.EqualFold(s.City, city) })
	}

	tieBreak := query.By(func(s StoreDTO) string { return s.ID.String() })
	var order query.Comparator[StoreDTO]
	switch filter.Sort {
	case SortByCreated:
		order = query.ByTime(func(s StoreDTO) time.Time { return s.CreatedAt })
	case SortByBalance:
		order = query.By(func(s StoreDTO) int64 { return s.BalanceDueCents })
	default:
		order = query.FoldString(func(s StoreDTO) string { return s.Name })
	}
	if filter.Desc {
		order = order.Reverse()
	}
	return c.Sort(order.Then(tieBreak))
}

func filterKey(f ListFilter) string {
	status, payment := "", ""
	if f.ApprovalStatus != nil {
		status = string(*f.ApprovalStatus)
	}
	if f.PaymentStatus != nil {
		payment = string(*f.PaymentStatus)
	}
	return strings.Join([]string{status, payment, strings.ToLower(f.State), strings.ToLower(f.City), string(f.Sort), fmt.Sprint(f.Desc)}, "|")
}
