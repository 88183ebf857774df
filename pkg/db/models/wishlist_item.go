package models

import "time"

// WishlistItem links a user to a liked product.
type WishlistItem struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	ProductID string    `gorm:"column:product_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
