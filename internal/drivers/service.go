package drivers

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/db/models"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/query"
)

type driverRepository interface {
	Create(tx *gorm.DB, d *models.Driver) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	List(ctx context.Context) ([]models.Driver, error)
	Save(ctx context.Context, d *models.Driver) error
	Delete(tx *gorm.DB, id uuid.UUID) (int64, error)
	AddTruck(ctx context.Context, t *models.Truck) error
	FindTruck(ctx context.Context, driverID, truckID uuid.UUID) (*models.Truck, error)
	SaveTruck(ctx context.Context, t *models.Truck) error
	DeleteTruck(ctx context.Context, driverID, truckID uuid.UUID) (int64, error)
	ActiveTrucks(ctx context.Context, driverID uuid.UUID) ([]models.Truck, error)
}

// Service manages the fleet roster.
type Service interface {
	Create(ctx context.Context, input DriverInput) (*DriverDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*DriverDTO, error)
	List(ctx context.Context, filter ListFilter) ([]DriverDTO, error)
	Update(ctx context.Context, id uuid.UUID, input DriverInput) (*DriverDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddTruck(ctx context.Context, driverID uuid.UUID, input TruckInput) (*TruckDTO, error)
	UpdateTruck(ctx context.Context, driverID, truckID uuid.UUID, input TruckInput) (*TruckDTO, error)
	RemoveTruck(ctx context.Context, driverID, truckID uuid.UUID) error
	ActiveTrucks(ctx context.Context, driverID uuid.UUID) ([]TruckDTO, error)
}

type service struct {
	repo driverRepository
	tx   db.TxRunner
	now  func() time.Time
}

func NewService(repo driverRepository, tx db.TxRunner, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("driver repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, tx: tx, now: now}, nil
}

func (s *service) Create(ctx context.Context, input DriverInput) (*DriverDTO, error) {
	input = normalizeDriver(input)
	invalid := validateDriver(input)
	for i, t := range input.Trucks {
		for k, v := range validateTruck(t) {
			invalid[fmt.Sprintf("trucks[%d].%s", i, k)] = v
		}
	}
	if err := pkgerrors.Fields("invalid driver", invalid); err != nil {
		return nil, err
	}

	d := &models.Driver{Active: true}
	applyDriver(d, input)
	for _, t := range input.Trucks {
		truck := models.Truck{Active: true}
		applyTruck(&truck, t)
		d.Trucks = append(d.Trucks, truck)
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return repo.Translate(s.repo.Create(tx, d), "driver")
	}); err != nil {
		return nil, err
	}
	dto := FromModel(*d, s.now())
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*DriverDTO, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "driver")
	}
	dto := FromModel(*d, s.now())
	return &dto, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]DriverDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, repo.Translate(err, "drivers")
	}
	now := s.now()
	c := query.New[models.Driver]().
		Filter(query.Search(filter.Search,
			func(d models.Driver) string { return d.Name },
			func(d models.Driver) string { return d.Phone },
			func(d models.Driver) string { return d.LicenseNumber },
			func(d models.Driver) string { return deref(d.Email) },
		)).
		Filter(query.EqualsIfSet(func(d models.Driver) bool { return d.Active }, filter.Active))
	if filter.ExpiringSoon {
		c = c.Filter(expiringSoon(now))
	}
	matched := c.Apply(rows)
	out := make([]DriverDTO, 0, len(matched))
	for _, d := range matched {
		out = append(out, FromModel(d, now))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input DriverInput) (*DriverDTO, error) {
	input = normalizeDriver(input)
	if err := pkgerrors.Fields("invalid driver", validateDriver(input)); err != nil {
		return nil, err
	}
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "driver")
	}
	applyDriver(d, input)
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, repo.Translate(err, "driver")
	}
	dto := FromModel(*d, s.now())
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.Delete(tx, id)
		if err != nil {
			return repo.Translate(err, "driver")
		}
		if n == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return nil
	})
}

func (s *service) AddTruck(ctx context.Context, driverID uuid.UUID, input TruckInput) (*TruckDTO, error) {
	input.Number = strings.TrimSpace(input.Number)
	if err := pkgerrors.Fields("invalid truck", validateTruck(input)); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, driverID); err != nil {
		return nil, repo.Translate(err, "driver")
	}
	t := &models.Truck{DriverID: driverID, Active: true}
	applyTruck(t, input)
	if err := s.repo.AddTruck(ctx, t); err != nil {
		return nil, repo.Translate(err, "truck")
	}
	dto := TruckFromModel(*t)
	return &dto, nil
}

func (s *service) UpdateTruck(ctx context.Context, driverID, truckID uuid.UUID, input TruckInput) (*TruckDTO, error) {
	input.Number = strings.TrimSpace(input.Number)
	if err := pkgerrors.Fields("invalid truck", validateTruck(input)); err != nil {
		return nil, err
	}
	t, err := s.repo.FindTruck(ctx, driverID, truckID)
	if err != nil {
		return nil, repo.Translate(err, "truck")
	}
	applyTruck(t, input)
	if err := s.repo.SaveTruck(ctx, t); err != nil {
		return nil, repo.Translate(err, "truck")
	}
	dto := TruckFromModel(*t)
	return &dto, nil
}

func (s *service) RemoveTruck(ctx context.Context, driverID, truckID uuid.UUID) error {
	n, err := s.repo.DeleteTruck(ctx, driverID, truckID)
	if err != nil {
		return repo.Translate(err, "truck")
	}
	if n == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "truck not found")
	}
	return nil
}

func (s *service) ActiveTrucks(ctx context.Context, driverID uuid.UUID) ([]TruckDTO, error) {
	if _, err := s.repo.FindByID(ctx, driverID); err != nil {
		return nil, repo.Translate(err, "driver")
	}
	rows, err := s.repo.ActiveTrucks(ctx, driverID)
	if err != nil {
		return nil, repo.Translate(err, "trucks")
	}
	out := make([]TruckDTO, 0, len(rows))
	for _, t := range rows {
		out = append(out, TruckFromModel(t))
	}
	return out, nil
}

func expiringSoon(now time.Time) query.Predicate[models.Driver] {
	return query.Within(now, LicenseWarningWindow, func(d models.Driver) *time.Time { return d.LicenseExpiry })
}

func normalizeDriver(in DriverInput) DriverInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	if in.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*in.Email))
		if e == "" {
			in.Email = nil
		} else {
			in.Email = &e
		}
	}
	for i := range in.Trucks {
		in.Trucks[i].Number = strings.TrimSpace(in.Trucks[i].Number)
	}
	return in
}

func validateDriver(in DriverInput) map[string]string {
	invalid := map[string]string{}
	if in.Name == "" {
		invalid["name"] = "required"
	}
	if in.Phone == "" {
		invalid["phone"] = "required"
	}
	if in.LicenseNumber == "" {
		invalid["license_number"] = "required"
	}
	if in.Email != nil {
		if _, err := mail.ParseAddress(*in.Email); err != nil {
			invalid["email"] = "must be a valid email"
		}
	}
	return invalid
}

func validateTruck(in TruckInput) map[string]string {
	invalid := map[string]string{}
	if in.Number == "" {
		invalid["number"] = "required"
	}
	if in.CapacityWeightKg <= 0 {
		invalid["capacity_weight_kg"] = "must be positive"
	}
	if in.CapacityVolumeM3 <= 0 {
		invalid["capacity_volume_m3"] = "must be positive"
	}
	return invalid
}

func applyDriver(d *models.Driver, in DriverInput) {
	d.Name = in.Name
	d.Email = in.Email
	d.Phone = in.Phone
	d.LicenseNumber = in.LicenseNumber
	d.LicenseExpiry = in.LicenseExpiry
	d.LicenseState = in.LicenseState
	if in.Active != nil {
		d.Active = *in.Active
	}
}

func applyTruck(t *models.Truck, in TruckInput) {
	t.Number = in.Number
	t.CapacityWeightKg = in.CapacityWeightKg
	t.CapacityVolumeM3 = in.CapacityVolumeM3
	if in.Active != nil {
		t.Active = *in.Active
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
