package products

import (
	"context"
	"strings"

	"github.com/angelmondragon/aura-storefront/pkg/db/models"
)

// Store is the persistence surface shared by the SQL and document backends.
type Store interface {
	List(ctx context.Context, keyword string) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

func normalizeKeyword(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}
