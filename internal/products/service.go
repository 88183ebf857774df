package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/aura-storefront/internal/repo"
	"github.com/angelmondragon/aura-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
)

// Service exposes catalogue browsing and admin product management.
type Service interface {
	List(ctx context.Context, keyword string) ([]ProductDTO, error)
	Get(ctx context.Context, id string) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id string, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	store Store
}

// NewService constructs a product service instance.
func NewService(store Store) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("product store required")
	}
	return &service{store: store}, nil
}

func (s *service) List(ctx context.Context, keyword string) ([]ProductDTO, error) {
	rows, err := s.store.List(ctx, keyword)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return NewProductDTOs(rows), nil
}

func (s *service) Get(ctx context.Context, id string) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

// Create inserts a product, defaulting the image to the placeholder.
func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if input.CountInStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "countInStock cannot be negative")
	}

	image := strings.TrimSpace(input.Image)
	if image == "" {
		image = DefaultImage
	}

	created, err := s.store.Create(ctx, &models.Product{
		Name:         name,
		Image:        image,
		Brand:        strings.TrimSpace(input.Brand),
		Category:     strings.TrimSpace(input.Category),
		Description:  strings.TrimSpace(input.Description),
		Price:        input.Price.Round(2),
		CountInStock: input.CountInStock,
		Rating:       decimal.Zero,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert product")
	}
	return NewProductDTO(created), nil
}

// Update applies the provided fields to an existing product.
func (s *service) Update(ctx context.Context, id string, input UpdateProductInput) (*ProductDTO, error) {
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
	}
	if input.CountInStock != nil && *input.CountInStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "countInStock cannot be negative")
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
	}

	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	applyUpdateToProduct(product, input)

	updated, err := s.store.Update(ctx, product)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return NewProductDTO(updated), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if repo.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) load(ctx context.Context, id string) (*models.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.store.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) {
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Image != nil {
		product.Image = strings.TrimSpace(*input.Image)
		if product.Image == "" {
			product.Image = DefaultImage
		}
	}
	if input.Brand != nil {
		product.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		product.Price = input.Price.Round(2)
	}
	if input.CountInStock != nil {
		product.CountInStock = *input.CountInStock
	}
}
