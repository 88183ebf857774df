package apiclient

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// User is the identity returned by register/login/profile. Token is only
// set on register and login.
type User struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token,omitempty"`
}

type Product struct {
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
}

type OrderItem struct {
	Name    string          `json:"name"`
	Qty     int             `json:"qty"`
	Image   string          `json:"image"`
	Price   decimal.Decimal `json:"price"`
	Product string          `json:"product"`
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// CreateOrderRequest is the body of POST /api/orders.
type CreateOrderRequest struct {
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid,omitempty"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
}

// Purchaser is the populated user on order detail responses.
type Purchaser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// OrderUser is either a bare user id or a populated purchaser.
type OrderUser struct {
	Purchaser
}

func (u *OrderUser) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &u.ID)
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.Unmarshal(trimmed, &u.Purchaser)
}

type Order struct {
	ID              string          `json:"_id"`
	User            OrderUser       `json:"user"`
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type wishlistResponse struct {
	Wishlist []string `json:"wishlist"`
}
