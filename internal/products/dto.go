package products

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/aura-storefront/pkg/db/models"
)

// DefaultImage is used when a product is created without an image.
const DefaultImage = "https://placehold.co/600x400"

// ProductDTO is the storefront wire shape of a catalogue entry.
type ProductDTO struct {
	ID           string          `json:"_id"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	Brand        string          `json:"brand"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	CountInStock int             `json:"countInStock"`
	Rating       decimal.Decimal `json:"rating"`
	NumReviews   int             `json:"numReviews"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// NewProductDTO converts a model into its wire shape.
func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		Image:        p.Image,
		Brand:        p.Brand,
		Category:     p.Category,
		Description:  p.Description,
		Price:        p.Price,
		CountInStock: p.CountInStock,
		Rating:       p.Rating,
		NumReviews:   p.NumReviews,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// NewProductDTOs converts a slice of models preserving order.
func NewProductDTOs(items []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(items))
	for i := range items {
		out = append(out, *NewProductDTO(&items[i]))
	}
	return out
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name         string
	Image        string
	Brand        string
	Category     string
	Description  string
	Price        decimal.Decimal
	CountInStock int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name         *string
	Image        *string
	Brand        *string
	Category     *string
	Description  *string
	Price        *decimal.Decimal
	CountInStock *int
}
