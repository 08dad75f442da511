package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/db/models"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/query"
)

// LocationKind distinguishes the two pickup location tables.
type LocationKind string

const (
	KindWarehouse LocationKind = "warehouse"
	KindVendor    LocationKind = "vendor"
)

type locationRepository interface {
	CreateWarehouse(ctx context.Context, w *models.Warehouse) error
	SaveWarehouse(ctx context.Context, w *models.Warehouse) error
	FindWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	ListWarehouses(ctx context.Context) ([]models.Warehouse, error)
	DeleteWarehouse(ctx context.Context, id uuid.UUID) (int64, error)
	CreateVendor(ctx context.Context, v *models.Vendor) error
	SaveVendor(ctx context.Context, v *models.Vendor) error
	FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	ListVendors(ctx context.Context) ([]models.Vendor, error)
	DeleteVendor(ctx context.Context, id uuid.UUID) (int64, error)
}

// LocationService manages warehouses and vendors.
type LocationService interface {
	Create(ctx context.Context, kind LocationKind, input LocationInput) (*LocationDTO, error)
	Update(ctx context.Context, kind LocationKind, id uuid.UUID, input LocationInput) (*LocationDTO, error)
	Delete(ctx context.Context, kind LocationKind, id uuid.UUID) error
	List(ctx context.Context, kind LocationKind, search string) ([]LocationDTO, error)
}

type locationService struct {
	repo locationRepository
}

func NewLocationService(repo locationRepository) (LocationService, error) {
	if repo == nil {
		return nil, fmt.Errorf("location repository required")
	}
	return &locationService{repo: repo}, nil
}

func (s *locationService) Create(ctx context.Context, kind LocationKind, input LocationInput) (*LocationDTO, error) {
	input, err := normalizeLocation(input)
	if err != nil {
		return nil, err
	}
	var dto LocationDTO
	switch kind {
	case KindWarehouse:
		w := models.Warehouse{Name: input.Name, Address: input.Address, Lat: input.Lat, Lng: input.Lng}
		if err := s.repo.CreateWarehouse(ctx, &w); err != nil {
			return nil, repo.Translate(err, "warehouse")
		}
		dto = FromWarehouse(w)
	case KindVendor:
		v := models.Vendor{Name: input.Name, Phone: input.Phone, Address: input.Address, Lat: input.Lat, Lng: input.Lng}
		if err := s.repo.CreateVendor(ctx, &v); err != nil {
			return nil, repo.Translate(err, "vendor")
		}
		dto = FromVendor(v)
	default:
		return nil, unknownKind(kind)
	}
	return &dto, nil
}

func (s *locationService) Update(ctx context.Context, kind LocationKind, id uuid.UUID, input LocationInput) (*LocationDTO, error) {
	input, err := normalizeLocation(input)
	if err != nil {
		return nil, err
	}
	var dto LocationDTO
	switch kind {
	case KindWarehouse:
		w, err := s.repo.FindWarehouse(ctx, id)
		if err != nil {
			return nil, repo.Translate(err, "warehouse")
		}
		w.Name, w.Address, w.Lat, w.Lng = input.Name, input.Address, input.Lat, input.Lng
		if err := s.repo.SaveWarehouse(ctx, w); err != nil {
			return nil, repo.Translate(err, "warehouse")
		}
		dto = FromWarehouse(*w)
	case KindVendor:
		v, err := s.repo.FindVendor(ctx, id)
		if err != nil {
			return nil, repo.Translate(err, "vendor")
		}
		v.Name, v.Phone, v.Address, v.Lat, v.Lng = input.Name, input.Phone, input.Address, input.Lat, input.Lng
		if err := s.repo.SaveVendor(ctx, v); err != nil {
			return nil, repo.Translate(err, "vendor")
		}
		dto = FromVendor(*v)
	default:
		return nil, unknownKind(kind)
	}
	return &dto, nil
}

func (s *locationService) Delete(ctx context.Context, kind LocationKind, id uuid.UUID) error {
	var (
		n   int64
		err error
	)
	switch kind {
	case KindWarehouse:
		n, err = s.repo.DeleteWarehouse(ctx, id)
	case KindVendor:
		n, err = s.repo.DeleteVendor(ctx, id)
	default:
		return unknownKind(kind)
	}
	if err != nil {
		return repo.Translate(err, string(kind))
	}
	if n == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, string(kind)+" not found")
	}
	return nil
}

func (s *locationService) List(ctx context.Context, kind LocationKind, search string) ([]LocationDTO, error) {
	var all []LocationDTO
	switch kind {
	case KindWarehouse:
		rows, err := s.repo.ListWarehouses(ctx)
		if err != nil {
			return nil, repo.Translate(err, "warehouses")
		}
		for _, w := range rows {
			all = append(all, FromWarehouse(w))
		}
	case KindVendor:
		rows, err := s.repo.ListVendors(ctx)
		if err != nil {
			return nil, repo.Translate(err, "vendors")
		}
		for _, v := range rows {
			all = append(all, FromVendor(v))
		}
	default:
		return nil, unknownKind(kind)
	}
	out := query.New[LocationDTO]().
		Filter(query.Search(search,
			func(l LocationDTO) string { return l.Name },
			func(l LocationDTO) string { return l.Address },
		)).
		Apply(all)
	return out, nil
}

func normalizeLocation(input LocationInput) (LocationInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Address = strings.TrimSpace(input.Address)
	invalid := map[string]string{}
	if input.Name == "" {
		invalid["name"] = "required"
	}
	if input.Address == "" {
		invalid["address"] = "required"
	}
	if (input.Lat == nil) != (input.Lng == nil) {
		invalid["lat"] = "lat and lng must be provided together"
	}
	if err := pkgerrors.Fields("invalid location", invalid); err != nil {
		return input, err
	}
	return input, nil
}

func unknownKind(kind LocationKind) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "unknown location kind").
		WithDetails(map[string]string{"kind": string(kind)})
}
