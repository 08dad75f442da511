package routeplanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/internal/trips"
	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/maps"
	"github.com/producehub/producehub-backend/pkg/query"
	"github.com/producehub/producehub-backend/pkg/types"
)

type planRepository interface {
	Create(ctx context.Context, plan *models.RoutePlan) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RoutePlan, error)
	List(ctx context.Context) ([]models.RoutePlan, error)
	SaveStops(ctx context.Context, plan *models.RoutePlan, at time.Time) (int64, error)
	AttachTrip(ctx context.Context, id, tripID uuid.UUID, at time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type locationSource interface {
	ListWarehouses(ctx context.Context) ([]models.Warehouse, error)
	FindWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	ListVendors(ctx context.Context) ([]models.Vendor, error)
	FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

type storeSource interface {
	ListAll(ctx context.Context) ([]models.Store, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Router is the subset of the maps client the planner calls.
type Router interface {
	Geocode(ctx context.Context, address string) (*maps.PlaceDetails, error)
	ComputeRoute(ctx context.Context, req maps.RouteRequest) (*maps.Route, error)
}

type tripCreator interface {
	Create(ctx context.Context, actor auth.Actor, draft trips.Draft) (*trips.TripDTO, error)
}

// Service edits route plan drafts and delegates routing to the maps vendor.
type Service interface {
	CreatePlan(ctx context.Context, actor auth.Actor, name string) (*PlanDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*PlanDTO, error)
	List(ctx context.Context) ([]PlanDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Candidates(ctx context.Context, planID uuid.UUID, search string) ([]types.RouteStop, error)
	AddStop(ctx context.Context, planID uuid.UUID, ref StopRef) (*PlanDTO, error)
	RemoveStop(ctx context.Context, planID uuid.UUID, ref StopRef) (*PlanDTO, error)
	MoveStop(ctx context.Context, planID uuid.UUID, from, to int) (*PlanDTO, error)
	Calculate(ctx context.Context, planID uuid.UUID) (*RouteSummary, error)
	Optimize(ctx context.Context, planID uuid.UUID) (*RouteSummary, error)
	Save(ctx context.Context, actor auth.Actor, planID uuid.UUID, input SaveInput) (*SaveResult, error)
}

type ServiceParams struct {
	Repo      planRepository
	Locations locationSource
	Stores    storeSource
	Router    Router
	Trips     tripCreator
	Now       func() time.Time
}

type service struct {
	repo      planRepository
	locations locationSource
	stores    storeSource
	router    Router
	trips     tripCreator
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("route plan repository required")
	case params.Locations == nil:
		return nil, fmt.Errorf("location source required")
	case params.Stores == nil:
		return nil, fmt.Errorf("store source required")
	case params.Router == nil:
		return nil, fmt.Errorf("router required")
	case params.Trips == nil:
		return nil, fmt.Errorf("trip service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		locations: params.Locations,
		stores:    params.Stores,
		router:    params.Router,
		trips:     params.Trips,
		now:       now,
	}, nil
}

func (s *service) CreatePlan(ctx context.Context, actor auth.Actor, name string) (*PlanDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.Fields("invalid route plan", map[string]string{"name": "required"})
	}
	plan := &models.RoutePlan{Name: name, Stops: types.RouteStops{}, CreatedBy: actor.UserID}
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, repo.Translate(err, "route plan")
	}
	dto := FromModel(*plan)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*PlanDTO, error) {
	plan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*plan)
	return &dto, nil
}

func (s *service) List(ctx context.Context) ([]PlanDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, repo.Translate(err, "route plans")
	}
	out := make([]PlanDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, FromModel(p))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return repo.Translate(err, "route plan")
	}
	if n == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "route plan not found")
	}
	return nil
}

// Candidates lists every warehouse, approved store and vendor not already
// on the plan.
func (s *service) Candidates(ctx context.Context, planID uuid.UUID, search string) ([]types.RouteStop, error) {
	plan, err := s.load(ctx, planID)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(plan.Stops))
	for _, stop := range plan.Stops {
		taken[stop.Key()] = true
	}

	all, err := s.allStops(ctx)
	if err != nil {
		return nil, err
	}
	return query.New[types.RouteStop]().
		Filter(query.Not[types.RouteStop](func(st types.RouteStop) bool { return taken[st.Key()] })).
		Filter(query.Search(search,
			func(st types.RouteStop) string { return st.Name },
			func(st types.RouteStop) string { return st.Address },
		)).
		Apply(all), nil
}

func (s *service) allStops(ctx context.Context) ([]types.RouteStop, error) {
	warehouses, err := s.locations.ListWarehouses(ctx)
	if err != nil {
		return nil, repo.Translate(err, "warehouses")
	}
	stores, err := s.stores.ListAll(ctx)
	if err != nil {
		return nil, repo.Translate(err, "stores")
	}
	vendors, err := s.locations.ListVendors(ctx)
	if err != nil {
		return nil, repo.Translate(err, "vendors")
	}

	out := make([]types.RouteStop, 0, len(warehouses)+len(stores)+len(vendors))
	for _, w := range warehouses {
		out = append(out, warehouseStop(w))
	}
	for _, st := range stores {
		if st.ApprovalStatus == enums.ApprovalStatusApproved {
			out = append(out, storeStop(st))
		}
	}
	for _, v := range vendors {
		out = append(out, vendorStop(v))
	}
	return out, nil
}

func (s *service) AddStop(ctx context.Context, planID uuid.UUID, ref StopRef) (*PlanDTO, error) {
	plan, err := s.loadEditable(ctx, planID)
	if err != nil {
		return nil, err
	}
	for _, stop := range plan.Stops {
		if stop.Key() == ref.key() {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "stop already on the route").
				WithDetails(map[string]string{"ref_id": ref.RefID.String(), "type": string(ref.Type)})
		}
	}
	stop, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	plan.Stops = append(plan.Stops, stop)
	clearRoute(plan)
	return s.persist(ctx, plan)
}

func (s *service) resolve(ctx context.Context, ref StopRef) (types.RouteStop, error) {
	switch ref.Type {
	case enums.StopTypeWarehouse:
		w, err := s.locations.FindWarehouse(ctx, ref.RefID)
		if err != nil {
			return types.RouteStop{}, repo.Translate(err, "warehouse")
		}
		return warehouseStop(*w), nil
	case enums.StopTypeCustomer:
		st, err := s.stores.FindByID(ctx, ref.RefID)
		if err != nil {
			return types.RouteStop{}, repo.Translate(err, "store")
		}
		if st.ApprovalStatus != enums.ApprovalStatusApproved {
			return types.RouteStop{}, pkgerrors.New(pkgerrors.CodeStateConflict, "store is not approved")
		}
		return storeStop(*st), nil
	case enums.StopTypeVendor:
		v, err := s.locations.FindVendor(ctx, ref.RefID)
		if err != nil {
			return types.RouteStop{}, repo.Translate(err, "vendor")
		}
		return vendorStop(*v), nil
	default:
		return types.RouteStop{}, pkgerrors.Fields("invalid stop", map[string]string{"type": "must be warehouse, customer or vendor"})
	}
}

func (s *service) RemoveStop(ctx context.Context, planID uuid.UUID, ref StopRef) (*PlanDTO, error) {
	plan, err := s.loadEditable(ctx, planID)
	if err != nil {
		return nil, err
	}
	kept := make(types.RouteStops, 0, len(plan.Stops))
	for _, stop := range plan.Stops {
		if stop.Key() != ref.key() {
			kept = append(kept, stop)
		}
	}
	if len(kept) == len(plan.Stops) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stop not on the route")
	}
	plan.Stops = kept
	clearRoute(plan)
	return s.persist(ctx, plan)
}

// MoveStop relocates the stop at index from to index to (both zero based).
func (s *service) MoveStop(ctx context.Context, planID uuid.UUID, from, to int) (*PlanDTO, error) {
	plan, err := s.loadEditable(ctx, planID)
	if err != nil {
		return nil, err
	}
	n := len(plan.Stops)
	invalid := map[string]string{}
	if from < 0 || from >= n {
		invalid["from"] = fmt.Sprintf("must be between 0 and %d", n-1)
	}
	if to < 0 || to >= n {
		invalid["to"] = fmt.Sprintf("must be between 0 and %d", n-1)
	}
	if err := pkgerrors.Fields("invalid move", invalid); err != nil {
		return nil, err
	}
	plan.Stops = move(plan.Stops, from, to)
	clearRoute(plan)
	return s.persist(ctx, plan)
}

func move(stops types.RouteStops, from, to int) types.RouteStops {
	out := make(types.RouteStops, 0, len(stops))
	moved := stops[from]
	for i, stop := range stops {
		if i != from {
			out = append(out, stop)
		}
	}
	out = append(out[:to], append(types.RouteStops{moved}, out[to:]...)...)
	return out
}

func (s *service) Calculate(ctx context.Context, planID uuid.UUID) (*RouteSummary, error) {
	return s.route(ctx, planID, false)
}

// Optimize keeps the first and last stops fixed and adopts whatever interior
// order the vendor returns.
func (s *service) Optimize(ctx context.Context, planID uuid.UUID) (*RouteSummary, error) {
	return s.route(ctx, planID, true)
}

func (s *service) route(ctx context.Context, planID uuid.UUID, optimize bool) (*RouteSummary, error) {
	plan, err := s.loadEditable(ctx, planID)
	if err != nil {
		return nil, err
	}
	if len(plan.Stops) < 2 {
		return nil, pkgerrors.Fields("route needs more stops", map[string]string{"stops": "at least two stops are required"})
	}
	if err := s.geocode(ctx, plan.Stops); err != nil {
		return nil, err
	}

	points := make([]maps.LatLng, 0, len(plan.Stops))
	for _, stop := range plan.Stops {
		points = append(points, maps.LatLng{Latitude: *stop.Lat, Longitude: *stop.Lng})
	}
	last := len(points) - 1
	route, err := s.router.ComputeRoute(ctx, maps.RouteRequest{
		Origin:        points[0],
		Destination:   points[last],
		Intermediates: points[1:last],
		Optimize:      optimize,
	})
	if err != nil {
		return nil, err
	}
	if optimize && len(route.OptimizedOrder) > 0 {
		reordered, err := reorder(plan.Stops, route.OptimizedOrder)
		if err != nil {
			return nil, err
		}
		plan.Stops = reordered
	}
	plan.DistanceM = &route.DistanceMeters
	plan.DurationS = &route.DurationSeconds

	dto, err := s.persist(ctx, plan)
	if err != nil {
		return nil, err
	}
	summary := &RouteSummary{
		Plan:            *dto,
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Legs:            make([]LegSummary, 0, len(route.Legs)),
		Optimized:       optimize,
	}
	for i, leg := range route.Legs {
		if i+1 >= len(plan.Stops) {
			break
		}
		summary.Legs = append(summary.Legs, LegSummary{
			From:            plan.Stops[i].Name,
			To:              plan.Stops[i+1].Name,
			DistanceMeters:  leg.DistanceMeters,
			DurationSeconds: leg.DurationSeconds,
		})
	}
	return summary, nil
}

// geocode fills coordinates for stops that have none.
func (s *service) geocode(ctx context.Context, stops types.RouteStops) error {
	for i := range stops {
		if stops[i].HasCoordinates() {
			continue
		}
		place, err := s.router.Geocode(ctx, stops[i].Address)
		if err != nil {
			return err
		}
		lat, lng := place.Location.Latitude, place.Location.Longitude
		stops[i].Lat, stops[i].Lng = &lat, &lng
	}
	return nil
}

// reorder applies the vendor's interior permutation. order indexes the
// stops between the first and the last.
func reorder(stops types.RouteStops, order []int) (types.RouteStops, error) {
	interior := stops[1 : len(stops)-1]
	if len(order) != len(interior) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "optimized order does not match stops")
	}
	out := make(types.RouteStops, 0, len(stops))
	out = append(out, stops[0])
	seen := make([]bool, len(interior))
	for _, idx := range order {
		if idx < 0 || idx >= len(interior) || seen[idx] {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "optimized order does not match stops")
		}
		seen[idx] = true
		out = append(out, interior[idx])
	}
	return append(out, stops[len(stops)-1]), nil
}

// Save posts a trip built from the plan's stops; the first stop is the
// origin and the last the destination.
func (s *service) Save(ctx context.Context, actor auth.Actor, planID uuid.UUID, input SaveInput) (*SaveResult, error) {
	plan, err := s.loadEditable(ctx, planID)
	if err != nil {
		return nil, err
	}
	if len(plan.Stops) < 2 {
		return nil, pkgerrors.Fields("route needs more stops", map[string]string{"stops": "at least two stops are required"})
	}
	first, last := plan.Stops[0], plan.Stops[len(plan.Stops)-1]
	trip, err := s.trips.Create(ctx, actor, trips.Draft{
		RouteFrom: first.Name,
		RouteTo:   last.Name,
		Stops:     plan.Stops,
		TripDate:  input.TripDate,
		DriverID:  input.DriverID,
		TruckID:   input.TruckID,
		Orders:    input.Orders,
		DistanceM: plan.DistanceM,
		DurationS: plan.DurationS,
	})
	if err != nil {
		return nil, err
	}
	n, err := s.repo.AttachTrip(ctx, plan.ID, trip.ID, s.now().UTC())
	if err != nil {
		return nil, repo.Translate(err, "route plan")
	}
	if n == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "route plan already saved")
	}
	plan.TripID = &trip.ID
	return &SaveResult{Plan: FromModel(*plan), Trip: *trip}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.RoutePlan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "route plan")
	}
	return plan, nil
}

func (s *service) loadEditable(ctx context.Context, id uuid.UUID) (*models.RoutePlan, error) {
	plan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.TripID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "route plan already saved as a trip").
			WithDetails(map[string]string{"trip_id": plan.TripID.String()})
	}
	return plan, nil
}

// persist writes the plan's stops and route figures back.
func (s *service) persist(ctx context.Context, plan *models.RoutePlan) (*PlanDTO, error) {
	n, err := s.repo.SaveStops(ctx, plan, s.now().UTC())
	if err != nil {
		return nil, repo.Translate(err, "route plan")
	}
	if n == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "route plan already saved as a trip")
	}
	dto := FromModel(*plan)
	return &dto, nil
}

// clearRoute drops distance and duration that no longer match the stops.
func clearRoute(plan *models.RoutePlan) {
	plan.DistanceM, plan.DurationS = nil, nil
}

func warehouseStop(w models.Warehouse) types.RouteStop {
	return types.RouteStop{RefID: w.ID, Type: enums.StopTypeWarehouse, Name: w.Name, Address: w.Address, Lat: w.Lat, Lng: w.Lng}
}

func vendorStop(v models.Vendor) types.RouteStop {
	return types.RouteStop{RefID: v.ID, Type: enums.StopTypeVendor, Name: v.Name, Address: v.Address, Lat: v.Lat, Lng: v.Lng}
}

func storeStop(st models.Store) types.RouteStop {
	address := strings.TrimSpace(fmt.Sprintf("%s, %s, %s %s", st.Address, st.City, st.State, st.ZipCode))
	return types.RouteStop{RefID: st.ID, Type: enums.StopTypeCustomer, Name: st.Name, Address: address, Lat: st.Lat, Lng: st.Lng}
}
