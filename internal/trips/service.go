package trips

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/drivers"
	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/outbox"
	"github.com/producehub/producehub-backend/pkg/query"
	"github.com/producehub/producehub-backend/pkg/types"
)

type tripRepository interface {
	Create(tx *gorm.DB, trip *models.Trip) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Trip, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Trip, error)
	List(ctx context.Context) ([]models.Trip, error)
	AssignedOrders(tx *gorm.DB, orderIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
	TransitionStatus(tx *gorm.DB, id uuid.UUID, from, to enums.TripStatus, at time.Time) (int64, error)
}

type driverReader interface {
	FindWithTrucksTx(tx *gorm.DB, id uuid.UUID) (*models.Driver, error)
}

type truckLister interface {
	ActiveTrucks(ctx context.Context, driverID uuid.UUID) ([]drivers.TruckDTO, error)
}

type orderStore interface {
	FindByIDsTx(tx *gorm.DB, ids []uuid.UUID) ([]models.Order, error)
	MarkDelivered(tx *gorm.DB, ids []uuid.UUID, at time.Time) (int64, error)
}

// Service plans delivery runs.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, draft Draft) (*TripDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*TripDTO, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	WizardDriverOptions(ctx context.Context, driverID uuid.UUID) (*WizardOptions, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, to enums.TripStatus) (*TripDTO, error)
}

// ServiceParams groups the trip service dependencies.
type ServiceParams struct {
	Repo    tripRepository
	Drivers driverReader
	Trucks  truckLister
	Orders  orderStore
	Tx      db.TxRunner
	Outbox  outbox.Emitter
	Now     func() time.Time
}

type service struct {
	repo    tripRepository
	drivers driverReader
	trucks  truckLister
	orders  orderStore
	tx      db.TxRunner
	outbox  outbox.Emitter
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("trip repository required")
	case params.Drivers == nil:
		return nil, fmt.Errorf("driver repository required")
	case params.Trucks == nil:
		return nil, fmt.Errorf("truck lister required")
	case params.Orders == nil:
		return nil, fmt.Errorf("order repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		drivers: params.Drivers,
		trucks:  params.Trucks,
		orders:  params.Orders,
		tx:      params.Tx,
		outbox:  params.Outbox,
		now:     now,
	}, nil
}

// Create validates the route, assignment and order steps together. Every
// problem found across all three is returned in one validation error.
func (s *service) Create(ctx context.Context, actor auth.Actor, draft Draft) (*TripDTO, error) {
	draft.RouteFrom = strings.TrimSpace(draft.RouteFrom)
	draft.RouteTo = strings.TrimSpace(draft.RouteTo)
	invalid := validateDraft(draft)
	now := s.now().UTC()

	var result models.Trip
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		truck, err := s.checkAssignment(tx, draft, invalid)
		if err != nil {
			return err
		}
		if err := s.checkOrders(tx, draft, truck, invalid); err != nil {
			return err
		}
		if err := pkgerrors.Fields("invalid trip", invalid); err != nil {
			return err
		}

		trip := &models.Trip{
			RouteFrom: draft.RouteFrom,
			RouteTo:   draft.RouteTo,
			Stops:     types.RouteStops(draft.Stops),
			TripDate:  truncateDay(*draft.TripDate),
			DriverID:  draft.DriverID,
			TruckID:   draft.TruckID,
			Status:    enums.TripStatusPlanned,
			DistanceM: draft.DistanceM,
			DurationS: draft.DurationS,
			CreatedBy: actor.UserID,
		}
		ids := make([]uuid.UUID, 0, len(draft.Orders))
		for i, o := range draft.Orders {
			trip.TotalWeightKg += o.WeightKg
			trip.TotalVolumeM3 += o.VolumeM3
			trip.Orders = append(trip.Orders, models.TripOrder{OrderID: o.OrderID, WeightKg: o.WeightKg, VolumeM3: o.VolumeM3, Position: i + 1})
			ids = append(ids, o.OrderID)
		}
		if err := s.repo.Create(tx, trip); err != nil {
			return repo.Translate(err, "trip")
		}
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTripCreated,
			AggregateType: enums.AggregateTrip,
			AggregateID:   trip.ID,
			Actor:         actor.Ref(),
			Data:          outbox.TripCreatedEvent{TripID: trip.ID, DriverID: trip.DriverID, TripDate: trip.TripDate, OrderIDs: ids},
			OccurredAt:    now,
		})
		if err != nil {
			return err
		}
		result = *trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(result)
	return &dto, nil
}

func validateDraft(d Draft) map[string]string {
	invalid := map[string]string{}
	if d.RouteFrom == "" {
		invalid["route_from"] = "required"
	}
	if d.RouteTo == "" {
		invalid["route_to"] = "required"
	}
	if d.TripDate == nil || d.TripDate.IsZero() {
		invalid["trip_date"] = "required"
	}
	for i, stop := range d.Stops {
		if !stop.Type.IsValid() {
			invalid[fmt.Sprintf("stops[%d].type", i)] = "must be warehouse, customer or vendor"
		}
	}
	if d.DriverID == uuid.Nil {
		invalid["driver_id"] = "required"
	}
	if d.TruckID == uuid.Nil {
		invalid["truck_id"] = "required"
	}
	if len(d.Orders) == 0 {
		invalid["orders"] = "at least one order is required"
	}
	seen := map[uuid.UUID]bool{}
	for i, o := range d.Orders {
		prefix := fmt.Sprintf("orders[%d].", i)
		switch {
		case o.OrderID == uuid.Nil:
			invalid[prefix+"order_id"] = "required"
		case seen[o.OrderID]:
			invalid[prefix+"order_id"] = "listed more than once"
		}
		seen[o.OrderID] = true
		if o.WeightKg < 0 {
			invalid[prefix+"weight_kg"] = "must not be negative"
		}
		if o.VolumeM3 < 0 {
			invalid[prefix+"volume_m3"] = "must not be negative"
		}
	}
	return invalid
}

// checkAssignment resolves the truck when driver and truck are both set.
func (s *service) checkAssignment(tx *gorm.DB, d Draft, invalid map[string]string) (*models.Truck, error) {
	if d.DriverID == uuid.Nil {
		return nil, nil
	}
	driver, err := s.drivers.FindWithTrucksTx(tx, d.DriverID)
	if err != nil {
		if pkgerrors.IsCode(repo.Translate(err, "driver"), pkgerrors.CodeNotFound) {
			invalid["driver_id"] = "driver not found"
			return nil, nil
		}
		return nil, repo.Translate(err, "driver")
	}
	if !driver.Active {
		invalid["driver_id"] = "driver is inactive"
	}
	if d.TruckID == uuid.Nil {
		return nil, nil
	}
	for i := range driver.Trucks {
		t := driver.Trucks[i]
		if t.ID != d.TruckID {
			continue
		}
		if !t.Active {
			invalid["truck_id"] = "truck is inactive"
			return nil, nil
		}
		return &t, nil
	}
	invalid["truck_id"] = "truck does not belong to the driver"
	return nil, nil
}

func (s *service) checkOrders(tx *gorm.DB, d Draft, truck *models.Truck, invalid map[string]string) error {
	ids := make([]uuid.UUID, 0, len(d.Orders))
	for _, o := range d.Orders {
		if o.OrderID != uuid.Nil {
			ids = append(ids, o.OrderID)
		}
	}
	found, err := s.orders.FindByIDsTx(tx, ids)
	if err != nil {
		return repo.Translate(err, "orders")
	}
	byID := make(map[uuid.UUID]models.Order, len(found))
	for _, o := range found {
		byID[o.ID] = o
	}
	assigned, err := s.repo.AssignedOrders(tx, ids)
	if err != nil {
		return repo.Translate(err, "trip orders")
	}

	var weight, volume float64
	for i, o := range d.Orders {
		weight += o.WeightKg
		volume += o.VolumeM3
		if o.OrderID == uuid.Nil {
			continue
		}
		key := fmt.Sprintf("orders[%d].order_id", i)
		order, ok := byID[o.OrderID]
		switch {
		case !ok:
			invalid[key] = "order not found"
		case order.Status == enums.OrderStatusCancelled || order.Status == enums.OrderStatusDelivered:
			invalid[key] = "order is " + string(order.Status)
		default:
			if tripID, taken := assigned[o.OrderID]; taken {
				invalid[key] = "order is already on trip " + tripID.String()
			}
		}
	}
	if truck != nil {
		if weight > truck.CapacityWeightKg {
			invalid["total_weight_kg"] = fmt.Sprintf("%.1f kg exceeds truck capacity %.1f kg", weight, truck.CapacityWeightKg)
		}
		if volume > truck.CapacityVolumeM3 {
			invalid["total_volume_m3"] = fmt.Sprintf("%.2f m3 exceeds truck capacity %.2f m3", volume, truck.CapacityVolumeM3)
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*TripDTO, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "trip")
	}
	dto := FromModel(*t)
	return &dto, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, repo.Translate(err, "trips")
	}
	c := query.New[models.Trip]().
		Filter(query.Search(filter.Search,
			func(t models.Trip) string { return t.RouteFrom },
			func(t models.Trip) string { return t.RouteTo },
		)).
		Filter(query.EqualsIfSet(func(t models.Trip) enums.TripStatus { return t.Status }, filter.Status)).
		Filter(query.EqualsIfSet(func(t models.Trip) uuid.UUID { return t.DriverID }, filter.DriverID))
	if filter.Date != nil {
		day := truncateDay(*filter.Date)
		c = c.Filter(func(t models.Trip) bool { return truncateDay(t.TripDate).Equal(day) })
	}
	matched := c.Apply(rows)
	items := make([]TripDTO, 0, len(matched))
	for _, t := range query.Page(matched, filter.Offset, filter.Limit) {
		items = append(items, FromModel(t))
	}
	return &ListResult{Items: items, Total: len(matched)}, nil
}

// WizardDriverOptions lists the driver's active trucks and resets the
// truck selection.
func (s *service) WizardDriverOptions(ctx context.Context, driverID uuid.UUID) (*WizardOptions, error) {
	trucks, err := s.trucks.ActiveTrucks(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return &WizardOptions{DriverID: driverID, Trucks: trucks, SelectedTruckID: nil}, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, to enums.TripStatus) (*TripDTO, error) {
	if !to.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid trip status").
			WithDetails(map[string]string{"status": "unknown status"})
	}
	now := s.now().UTC()
	var result models.Trip
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		trip, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return repo.Translate(err, "trip")
		}
		from := trip.Status
		if !from.CanTransitionTo(to) {
			return illegalTransition(from, to)
		}
		changed, err := s.repo.TransitionStatus(tx, id, from, to, now)
		if err != nil {
			return repo.Translate(err, "trip")
		}
		if changed == 0 {
			return illegalTransition(from, to)
		}
		if to == enums.TripStatusDelivered {
			ids := make([]uuid.UUID, 0, len(trip.Orders))
			for _, o := range trip.Orders {
				ids = append(ids, o.OrderID)
			}
			if _, err := s.orders.MarkDelivered(tx, ids, now); err != nil {
				return repo.Translate(err, "orders")
			}
		}
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTripStatusChanged,
			AggregateType: enums.AggregateTrip,
			AggregateID:   id,
			Actor:         actor.Ref(),
			Data:          outbox.TripStatusChangedEvent{TripID: id, From: from, To: to},
			OccurredAt:    now,
		})
		if err != nil {
			return err
		}
		trip.Status = to
		result = *trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(result)
	return &dto, nil
}

func illegalTransition(from, to enums.TripStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "illegal trip status transition").
		WithDetails(map[string]string{"from": string(from), "to": string(to)})
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
