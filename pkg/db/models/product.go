package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalogue listing.
type Product struct {
	ID           string          `gorm:"column:id;primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	Image        string          `gorm:"column:image;not null"`
	Brand        string          `gorm:"column:brand;not null;default:''"`
	Category     string          `gorm:"column:category;not null;default:''"`
	Description  string          `gorm:"column:description;not null;default:''"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CountInStock int             `gorm:"column:count_in_stock;not null;default:0"`
	Rating       decimal.Decimal `gorm:"column:rating;type:numeric(3,2);not null"`
	NumReviews   int             `gorm:"column:num_reviews;not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
