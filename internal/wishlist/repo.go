package wishlist

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/aura-storefront/internal/repo"
	"github.com/angelmondragon/aura-storefront/pkg/db/models"
)

// Repository handles wishlist persistence over GORM.
type Repository struct {
	repo.Base
}

// NewRepository builds a wishlist repository bound to the provided DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

// Add inserts the wishlist row; adding an existing entry is a no-op.
func (r *Repository) Add(ctx context.Context, userID, productID string) error {
	item := models.WishlistItem{UserID: userID, ProductID: productID}
	return r.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error
}

// Remove deletes the wishlist row and reports whether one existed.
func (r *Repository) Remove(ctx context.Context, userID, productID string) (bool, error) {
	res := r.DB(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListProductIDs returns the user's wishlisted product ids, oldest first.
func (r *Repository) ListProductIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.DB(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("product_id ASC").
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
