package payloads

import (
	"time"
)

// OrderCreatedEvent is emitted once an order is placed.
type OrderCreatedEvent struct {
	OrderID       string    `json:"orderId"`
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	UserEmail     string    `json:"userEmail"`
	PaymentMethod string    `json:"paymentMethod"`
	ItemCount     int       `json:"itemCount"`
	TotalPrice    string    `json:"totalPrice"`
	IsPaid        bool      `json:"isPaid"`
	CreatedAt     time.Time `json:"createdAt"`
}

// OrderPaidEvent is emitted the first time an order is marked paid.
type OrderPaidEvent struct {
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	UserEmail  string    `json:"userEmail"`
	TotalPrice string    `json:"totalPrice"`
	PaidAt     time.Time `json:"paidAt"`
}

// OrderDeliveredEvent is emitted the first time an order is marked delivered.
type OrderDeliveredEvent struct {
	OrderID     string    `json:"orderId"`
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName"`
	UserEmail   string    `json:"userEmail"`
	DeliveredAt time.Time `json:"deliveredAt"`
}
