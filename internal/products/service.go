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

type productRepository interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	SaveProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// Service exposes catalog management.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
}

type service struct {
	repo productRepository
}

func NewService(repo productRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	p := models.Product{
		SKU:            strings.TrimSpace(input.SKU),
		Name:           strings.TrimSpace(input.Name),
		Unit:           strings.TrimSpace(input.Unit),
		UnitsPerBox:    input.UnitsPerBox,
		BoxPriceCents:  input.BoxPriceCents,
		UnitPriceCents: input.UnitPriceCents,
		Active:         true,
	}
	if input.Active != nil {
		p.Active = *input.Active
	}
	if p.UnitsPerBox == 0 {
		p.UnitsPerBox = 1
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.repo.CreateProduct(ctx, &p); err != nil {
		return nil, repo.Translate(err, "product")
	}
	dto := FromModel(p)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	p, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "product")
	}
	if input.SKU != nil {
		p.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.Name != nil {
		p.Name = strings.TrimSpace(*input.Name)
	}
	if input.Unit != nil {
		p.Unit = strings.TrimSpace(*input.Unit)
	}
	if input.UnitsPerBox != nil {
		p.UnitsPerBox = *input.UnitsPerBox
	}
	if input.BoxPriceCents != nil {
		p.BoxPriceCents = *input.BoxPriceCents
	}
	if input.UnitPriceCents != nil {
		p.UnitPriceCents = *input.UnitPriceCents
	}
	if input.Active != nil {
		p.Active = *input.Active
	}
	if err := validateProduct(*p); err != nil {
		return nil, err
	}
	if err := s.repo.SaveProduct(ctx, p); err != nil {
		return nil, repo.Translate(err, "product")
	}
	dto := FromModel(*p)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return repo.Translate(err, "product")
	}
	if n == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	p, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "product")
	}
	dto := FromModel(*p)
	return &dto, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	rows, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, repo.Translate(err, "products")
	}
	c := query.New[models.Product]().
		Filter(query.Search(filter.Search,
			func(p models.Product) string { return p.Name },
			func(p models.Product) string { return p.SKU },
		))
	if filter.ActiveOnly {
		c = c.Filter(query.Equals(func(p models.Product) bool { return p.Active }, true))
	}
	matched := c.Apply(rows)
	items := make([]ProductDTO, 0, len(matched))
	for _, p := range query.Page(matched, filter.Offset, filter.Limit) {
		items = append(items, FromModel(p))
	}
	return &ListResult{Items: items, Total: len(matched)}, nil
}

func validateProduct(p models.Product) error {
	invalid := map[string]string{}
	if p.SKU == "" {
		invalid["sku"] = "required"
	}
	if p.Name == "" {
		invalid["name"] = "required"
	}
	if p.Unit == "" {
		invalid["unit"] = "required"
	}
	if p.UnitsPerBox < 1 {
		invalid["units_per_box"] = "must be at least 1"
	}
	if p.BoxPriceCents < 0 {
		invalid["box_price_cents"] = "must not be negative"
	}
	if p.UnitPriceCents < 0 {
		invalid["unit_price_cents"] = "must not be negative"
	}
	if err := pkgerrors.Fields("invalid product", invalid); err != nil {
		return err
	}
	return nil
}
