package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/aura-storefront/pkg/db/models"
	"github.com/angelmondragon/aura-storefront/pkg/enums"
)

// ShippingAddressDTO is the delivery destination captured at checkout.
type ShippingAddressDTO struct {
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// OrderItemDTO is one snapshotted cart line.
type OrderItemDTO struct {
	Name    string          `json:"name" validate:"required"`
	Qty     int             `json:"qty" validate:"gte=1"`
	Image   string          `json:"image"`
	Price   decimal.Decimal `json:"price"`
	Product string          `json:"product" validate:"required"`
}

// CreateOrderRequest is the body of POST /api/orders.
type CreateOrderRequest struct {
	OrderItems      []OrderItemDTO     `json:"orderItems"`
	ShippingAddress ShippingAddressDTO `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod" validate:"required"`
	ItemsPrice      decimal.Decimal    `json:"itemsPrice"`
	ShippingPrice   decimal.Decimal    `json:"shippingPrice"`
	TotalPrice      decimal.Decimal    `json:"totalPrice"`
	IsPaid          bool               `json:"isPaid,omitempty"`
	PaidAt          *time.Time         `json:"paidAt,omitempty"`
}

// PurchaserDTO is the populated user reference on an order.
type PurchaserDTO struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// OrderDTO is the storefront wire shape of an order. User is either the
// purchaser's id (unpopulated) or a PurchaserDTO.
type OrderDTO struct {
	ID              string              `json:"_id"`
	User            any                 `json:"user"`
	OrderItems      []OrderItemDTO      `json:"orderItems"`
	ShippingAddress ShippingAddressDTO  `json:"shippingAddress"`
	PaymentMethod   enums.PaymentMethod `json:"paymentMethod"`
	ItemsPrice      decimal.Decimal     `json:"itemsPrice"`
	ShippingPrice   decimal.Decimal     `json:"shippingPrice"`
	TotalPrice      decimal.Decimal     `json:"totalPrice"`
	IsPaid          bool                `json:"isPaid"`
	PaidAt          *time.Time          `json:"paidAt,omitempty"`
	IsDelivered     bool                `json:"isDelivered"`
	DeliveredAt     *time.Time          `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// NewOrderDTO converts a model into its wire shape. A nil purchaser leaves the
// user field as the bare id.
func NewOrderDTO(o *models.Order, purchaser *models.User, withEmail bool) *OrderDTO {
	if o == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:   o.ID,
		User: o.UserID,
		ShippingAddress: ShippingAddressDTO{
			Address:    o.ShippingAddress,
			City:       o.ShippingCity,
			PostalCode: o.ShippingPostalCode,
			Country:    o.ShippingCountry,
		},
		PaymentMethod: o.PaymentMethod,
		ItemsPrice:    o.ItemsPrice,
		ShippingPrice: o.ShippingPrice,
		TotalPrice:    o.TotalPrice,
		IsPaid:        o.IsPaid,
		PaidAt:        o.PaidAt,
		IsDelivered:   o.IsDelivered,
		DeliveredAt:   o.DeliveredAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if purchaser != nil {
		p := PurchaserDTO{ID: purchaser.ID, Name: purchaser.Name}
		if withEmail {
			p.Email = purchaser.Email
		}
		dto.User = p
	}
	dto.OrderItems = make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		dto.OrderItems = append(dto.OrderItems, OrderItemDTO{
			Name:    item.Name,
			Qty:     item.Qty,
			Image:   item.Image,
			Price:   item.Price,
			Product: item.ProductID,
		})
	}
	return dto
}
