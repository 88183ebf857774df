package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/aura-storefront/internal/repo"
	"github.com/angelmondragon/aura-storefront/pkg/db/models"
)

// Repository exposes product persistence over GORM.
type Repository struct {
	repo.Base
}

// NewRepository binds a product repository to the provided GORM connection.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List returns products whose name contains keyword (case-insensitive), newest first.
func (r *Repository) List(ctx context.Context, keyword string) ([]models.Product, error) {
	query := r.DB(ctx).Model(&models.Product{})
	if kw := normalizeKeyword(keyword); kw != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(kw)+"%")
	}
	var rows []models.Product
	if err := query.Order("created_at DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads a product by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads the products matching ids, keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	out := make(map[string]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// Create inserts the product, assigning an id when missing.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if err := r.DB(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update persists every column of the product.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	res := r.DB(ctx).Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]any{
		"name":           product.Name,
		"image":          product.Image,
		"brand":          product.Brand,
		"category":       product.Category,
		"description":    product.Description,
		"price":          product.Price,
		"count_in_stock": product.CountInStock,
		"rating":         product.Rating,
		"num_reviews":    product.NumReviews,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, product.ID)
}

// Delete removes the product, returning gorm.ErrRecordNotFound when absent.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
