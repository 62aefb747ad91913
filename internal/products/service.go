package product

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/osoriodev/tienda-backend/pkg/db/models"
	pkgerrors "github.com/osoriodev/tienda-backend/pkg/errors"
	"github.com/osoriodev/tienda-backend/pkg/logger"
)

// Service exposes catalog product management operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, id int64, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*ProductDTO, error)
	List(ctx context.Context) ([]ProductDTO, error)
}

// service implements the product service. The cache is optional; a nil cache
// sends every read straight to the database.
type service struct {
	repo  *Repository
	cache *Cache
	logg  *logger.Logger
}

// NewService constructs a product service instance.
func NewService(repo *Repository, cache *Cache, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, cache: cache, logg: logg}, nil
}

// Create inserts the product after validating business constraints.
func (s *service) Create(ctx context.Context, input CreateInput) (*ProductDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, inputToModel(input))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting product")
	}
	return toDTO(created), nil
}

// Update applies the supplied fields; omitted fields keep their prior value.
func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (*ProductDTO, error) {
	updates, err := buildUpdates(input)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.UpdateFields(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %d not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}

	s.invalidate(ctx, id)

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading product")
	}
	return toDTO(updated), nil
}

// Delete removes the product row.
func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "product %d not found", id)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}

	s.invalidate(ctx, id)
	return nil
}

// Get returns a single product, served from the cache when possible.
func (s *service) Get(ctx context.Context, id int64) (*ProductDTO, error) {
	if s.cache != nil {
		cached, err := s.cache.GetProduct(ctx, id)
		switch {
		case err == nil:
			return cached, nil
		case errors.Is(err, ErrCachedNotFound):
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %d not found", id)
		}
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.cache != nil {
				if cacheErr := s.cache.SetNotFound(ctx, id); cacheErr != nil {
					s.logg.Warn(s.logg.WithField(ctx, "product_id", id), "caching negative product lookup failed")
				}
			}
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %d not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	dto := toDTO(row)
	if s.cache != nil {
		if cacheErr := s.cache.SetProduct(ctx, dto); cacheErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "product_id", id), "caching product failed")
		}
	}
	return dto, nil
}

// List returns all products ordered by id. Never cached; the list must
// reflect stock mutations made by the purchase engine immediately.
func (s *service) List(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	return toDTOs(rows), nil
}

func (s *service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "product_id", id), "product cache invalidation failed")
	}
}

func validateCreate(input CreateInput) error {
	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	return nil
}

func buildUpdates(input UpdateInput) (map[string]any, error) {
	updates := map[string]any{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		updates["price"] = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		updates["stock"] = *input.Stock
	}
	if input.Image != nil {
		updates["image"] = *input.Image
	}
	return updates, nil
}

func inputToModel(input CreateInput) *models.Product {
	return &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Image:       input.Image,
	}
}
