package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/aura-storefront/pkg/enums"
)

// Order is a placed order; line items are snapshotted at placement.
type Order struct {
	ID                 string              `gorm:"column:id;primaryKey"`
	UserID             string              `gorm:"column:user_id;not null"`
	ShippingAddress    string              `gorm:"column:shipping_address;not null"`
	ShippingCity       string              `gorm:"column:shipping_city;not null"`
	ShippingPostalCode string              `gorm:"column:shipping_postal_code;not null"`
	ShippingCountry    string              `gorm:"column:shipping_country;not null"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;not null"`
	ItemsPrice         decimal.Decimal     `gorm:"column:items_price;type:numeric(12,2);not null"`
	ShippingPrice      decimal.Decimal     `gorm:"column:shipping_price;type:numeric(12,2);not null"`
	TotalPrice         decimal.Decimal     `gorm:"column:total_price;type:numeric(12,2);not null"`
	IsPaid             bool                `gorm:"column:is_paid;not null;default:false"`
	PaidAt             *time.Time          `gorm:"column:paid_at"`
	IsDelivered        bool                `gorm:"column:is_delivered;not null;default:false"`
	DeliveredAt        *time.Time          `gorm:"column:delivered_at"`
	Items              []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	User               *User               `gorm:"foreignKey:UserID"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem captures the snapshot of one cart line within an order.
type OrderItem struct {
	ID        string          `gorm:"column:id;primaryKey"`
	OrderID   string          `gorm:"column:order_id;not null"`
	Position  int             `gorm:"column:position;not null"`
	ProductID string          `gorm:"column:product_id;not null"`
	Name      string          `gorm:"column:name;not null"`
	Qty       int             `gorm:"column:qty;not null"`
	Image     string          `gorm:"column:image;not null;default:''"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
}
