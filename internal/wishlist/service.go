package wishlist

import (
	"context"
	"strings"

	"github.com/angelmondragon/aura-storefront/internal/products"
	"github.com/angelmondragon/aura-storefront/internal/repo"
	"github.com/angelmondragon/aura-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
)

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	WishlistStore Store
	ProductStore  productReader
}

type productReader interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error)
}

// Service exposes business rules for wishlist management.
type Service interface {
	Toggle(ctx context.Context, userID, productID string) (WishlistIDsDTO, error)
	ListProducts(ctx context.Context, userID string) ([]products.ProductDTO, error)
}

type service struct {
	store    Store
	products productReader
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.WishlistStore == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist store is required")
	}
	if params.ProductStore == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product store is required")
	}
	return &service{store: params.WishlistStore, products: params.ProductStore}, nil
}

// Toggle removes the product when wishlisted, otherwise adds it after checking it exists.
func (s *service) Toggle(ctx context.Context, userID, productID string) (WishlistIDsDTO, error) {
	if strings.TrimSpace(userID) == "" {
		return WishlistIDsDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return WishlistIDsDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	removed, err := s.store.Remove(ctx, userID, productID)
	if err != nil {
		return WishlistIDsDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	if !removed {
		if _, err := s.products.FindByID(ctx, productID); err != nil {
			if repo.IsNotFound(err) {
				return WishlistIDsDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
			}
			return WishlistIDsDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if err := s.store.Add(ctx, userID, productID); err != nil {
			if repo.IsNotFound(err) {
				return WishlistIDsDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
			}
			return WishlistIDsDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
		}
	}

	ids, err := s.listIDs(ctx, userID)
	if err != nil {
		return WishlistIDsDTO{}, err
	}
	return WishlistIDsDTO{Wishlist: ids}, nil
}

// ListProducts returns the wishlisted products in wishlist order, skipping deleted ones.
func (s *service) ListProducts(ctx context.Context, userID string) ([]products.ProductDTO, error) {
	ids, err := s.listIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist products")
	}
	out := make([]products.ProductDTO, 0, len(ids))
	for _, id := range ids {
		if product, ok := found[id]; ok {
			out = append(out, *products.NewProductDTO(product))
		}
	}
	return out, nil
}

func (s *service) listIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.store.ListProductIDs(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	return ids, nil
}
