package workorders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/db/models"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
)

type workOrderRepository interface {
	Lines(ctx context.Context, from, to time.Time) ([]Line, error)
	Availability(ctx context.Context, week string) (map[uuid.UUID]int, error)
	SetAvailability(ctx context.Context, row models.InventoryAvailability) error
	Picks(ctx context.Context, week string) (map[pickKey]models.WorkOrderPick, error)
	ApplyPick(ctx context.Context, pick models.WorkOrderPick) (bool, error)
}

type productReader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service builds weekly pick plans and records pick progress.
type Service interface {
	Get(ctx context.Context, week string) (*WorkOrder, error)
	TogglePick(ctx context.Context, actor auth.Actor, week string, input ToggleInput) (*ToggleResult, error)
	SetAvailability(ctx context.Context, week string, input AvailabilityInput) (*WorkOrder, error)
	ExportXLSX(ctx context.Context, week string) ([]byte, string, error)
}

// ToggleInput flips one pick. Seq must increase per line on the client;
// a toggle whose seq is not newer than the stored one is ignored.
type ToggleInput struct {
	StoreID   uuid.UUID `json:"store_id"`
	ProductID uuid.UUID `json:"product_id"`
	Picked    bool      `json:"picked"`
	Seq       int64     `json:"seq"`
}

type ToggleResult struct {
	Applied   bool       `json:"applied"`
	WorkOrder *WorkOrder `json:"work_order"`
}

type AvailabilityInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type service struct {
	repo     workOrderRepository
	products productReader
	now      func() time.Time
}

func NewService(repo workOrderRepository, products productReader, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("work order repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, products: products, now: now}, nil
}

func parseWeek(value string) (Week, error) {
	w, err := ParseWeek(value)
	if err != nil {
		return Week{}, pkgerrors.Fields("invalid week", map[string]string{"week": err.Error()})
	}
	return w, nil
}

func (s *service) Get(ctx context.Context, week string) (*WorkOrder, error) {
	w, err := parseWeek(week)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, w)
}

func (s *service) build(ctx context.Context, w Week) (*WorkOrder, error) {
	lines, err := s.repo.Lines(ctx, w.Start(), w.End())
	if err != nil {
		return nil, repo.Translate(err, "work order lines")
	}
	available, err := s.repo.Availability(ctx, w.String())
	if err != nil {
		return nil, repo.Translate(err, "inventory")
	}
	picks, err := s.repo.Picks(ctx, w.String())
	if err != nil {
		return nil, repo.Translate(err, "picks")
	}
	return Build(w, lines, available, picks), nil
}

func (s *service) TogglePick(ctx context.Context, actor auth.Actor, week string, input ToggleInput) (*ToggleResult, error) {
	w, err := parseWeek(week)
	if err != nil {
		return nil, err
	}
	invalid := map[string]string{}
	if input.StoreID == uuid.Nil {
		invalid["store_id"] = "required"
	}
	if input.ProductID == uuid.Nil {
		invalid["product_id"] = "required"
	}
	if input.Seq <= 0 {
		invalid["seq"] = "must be positive"
	}
	if err := pkgerrors.Fields("invalid pick", invalid); err != nil {
		return nil, err
	}

	current, err := s.build(ctx, w)
	if err != nil {
		return nil, err
	}
	if _, ok := current.Row(input.StoreID, input.ProductID); !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no work order line for this store and product")
	}

	pick := models.WorkOrderPick{
		Week:      w.String(),
		StoreID:   input.StoreID,
		ProductID: input.ProductID,
		Picked:    input.Picked,
		Seq:       input.Seq,
		UpdatedAt: s.now().UTC(),
	}
	if actor.UserID != uuid.Nil {
		by := actor.UserID
		pick.PickedBy = &by
	}
	applied, err := s.repo.ApplyPick(ctx, pick)
	if err != nil {
		return nil, repo.Translate(err, "pick")
	}
	refreshed, err := s.build(ctx, w)
	if err != nil {
		return nil, err
	}
	return &ToggleResult{Applied: applied, WorkOrder: refreshed}, nil
}

func (s *service) SetAvailability(ctx context.Context, week string, input AvailabilityInput) (*WorkOrder, error) {
	w, err := parseWeek(week)
	if err != nil {
		return nil, err
	}
	invalid := map[string]string{}
	if input.ProductID == uuid.Nil {
		invalid["product_id"] = "required"
	}
	if input.Quantity < 0 {
		invalid["quantity"] = "must not be negative"
	}
	if err := pkgerrors.Fields("invalid availability", invalid); err != nil {
		return nil, err
	}
	if _, err := s.products.FindProduct(ctx, input.ProductID); err != nil {
		return nil, repo.Translate(err, "product")
	}
	row := models.InventoryAvailability{
		ProductID: input.ProductID,
		Week:      w.String(),
		Quantity:  input.Quantity,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.repo.SetAvailability(ctx, row); err != nil {
		return nil, repo.Translate(err, "inventory")
	}
	return s.build(ctx, w)
}

func (s *service) ExportXLSX(ctx context.Context, week string) ([]byte, string, error) {
	w, err := parseWeek(week)
	if err != nil {
		return nil, "", err
	}
	wo, err := s.build(ctx, w)
	if err != nil {
		return nil, "", err
	}
	data, err := PickSheet(wo)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render pick sheet")
	}
	return data, "work-order-" + w.String() + ".xlsx", nil
}
