package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/aura-storefront/internal/repo"
	"github.com/angelmondragon/aura-storefront/pkg/checkout"
	"github.com/angelmondragon/aura-storefront/pkg/db/models"
	"github.com/angelmondragon/aura-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
	"github.com/angelmondragon/aura-storefront/pkg/outbox"
	"github.com/angelmondragon/aura-storefront/pkg/outbox/payloads"
)

// Actor identifies the authenticated caller of an order operation.
type Actor struct {
	UserID  string
	IsAdmin bool
}

func (a Actor) ref() *outbox.ActorRef {
	return &outbox.ActorRef{UserID: a.UserID, Role: enums.RoleFor(a.IsAdmin).String()}
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// ServiceParams groups dependencies for the orders service.
type ServiceParams struct {
	OrderStore Store
	UserStore  userReader
	Now        func() time.Time
}

// Service exposes order placement and the admin order lifecycle.
type Service interface {
	Create(ctx context.Context, actor Actor, req CreateOrderRequest) (*OrderDTO, error)
	Get(ctx context.Context, actor Actor, id string) (*OrderDTO, error)
	ListMine(ctx context.Context, actor Actor) ([]OrderDTO, error)
	ListAll(ctx context.Context) ([]OrderDTO, error)
	MarkPaid(ctx context.Context, actor Actor, id string) (*OrderDTO, error)
	MarkDelivered(ctx context.Context, actor Actor, id string) (*OrderDTO, error)
}

type service struct {
	store Store
	users userReader
	now   func() time.Time
}

// NewService builds an orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.OrderStore == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.UserStore == nil {
		return nil, fmt.Errorf("user store required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{store: params.OrderStore, users: params.UserStore, now: now}, nil
}

// Create places an order after re-deriving its totals from the submitted lines.
func (s *service) Create(ctx context.Context, actor Actor, req CreateOrderRequest) (*OrderDTO, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}

	lines := make([]checkout.LineValidationInput, 0, len(req.OrderItems))
	priced := make([]checkout.PricedLine, 0, len(req.OrderItems))
	for _, item := range req.OrderItems {
		lines = append(lines, checkout.LineValidationInput{
			ProductID: item.Product,
			Name:      item.Name,
			Quantity:  item.Qty,
			UnitPrice: item.Price,
		})
		priced = append(priced, checkout.PricedLine{UnitPrice: item.Price, Quantity: item.Qty})
	}
	if err := checkout.ValidateLines(lines); err != nil {
		return nil, err
	}
	if err := validateShipping(req.ShippingAddress); err != nil {
		return nil, err
	}

	method, err := enums.ParsePaymentMethod(strings.TrimSpace(req.PaymentMethod))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	expected := checkout.Compute(priced)
	submitted := checkout.Totals{
		ItemsPrice:    req.ItemsPrice,
		ShippingPrice: req.ShippingPrice,
		TotalPrice:    req.TotalPrice,
	}
	if !expected.Matches(submitted) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order totals do not match items").WithDetails(map[string]any{
			"itemsPrice":    expected.ItemsPrice.StringFixed(2),
			"shippingPrice": expected.ShippingPrice.StringFixed(2),
			"totalPrice":    expected.TotalPrice.StringFixed(2),
		})
	}
	if req.IsPaid && !method.PrePaid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only card orders can be paid at placement")
	}

	user, err := s.purchaser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		ID:                 uuid.NewString(),
		UserID:             actor.UserID,
		ShippingAddress:    strings.TrimSpace(req.ShippingAddress.Address),
		ShippingCity:       strings.TrimSpace(req.ShippingAddress.City),
		ShippingPostalCode: strings.TrimSpace(req.ShippingAddress.PostalCode),
		ShippingCountry:    strings.TrimSpace(req.ShippingAddress.Country),
		PaymentMethod:      method,
		ItemsPrice:         expected.ItemsPrice,
		ShippingPrice:      expected.ShippingPrice,
		TotalPrice:         expected.TotalPrice,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.IsPaid {
		paidAt := now
		if req.PaidAt != nil && !req.PaidAt.After(now) {
			paidAt = req.PaidAt.UTC()
		}
		order.IsPaid = true
		order.PaidAt = &paidAt
	}
	for i, item := range req.OrderItems {
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			Position:  i,
			ProductID: strings.TrimSpace(item.Product),
			Name:      strings.TrimSpace(item.Name),
			Qty:       item.Qty,
			Image:     strings.TrimSpace(item.Image),
			Price:     item.Price.Round(2),
		})
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor.ref(),
		OccurredAt:    now,
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			UserID:        user.ID,
			UserName:      user.Name,
			UserEmail:     user.Email,
			PaymentMethod: method.String(),
			ItemCount:     itemCount(order.Items),
			TotalPrice:    order.TotalPrice.StringFixed(2),
			IsPaid:        order.IsPaid,
			CreatedAt:     now,
		},
	}

	created, err := s.store.Create(ctx, order, event)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
	}
	return NewOrderDTO(created, nil, false), nil
}

// Get returns the order with its purchaser. Orders belonging to someone else
// are reported as missing unless the caller is an admin.
func (s *service) Get(ctx context.Context, actor Actor, id string) (*OrderDTO, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil && !repo.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchaser")
	}
	return NewOrderDTO(order, user, true), nil
}

func (s *service) ListMine(ctx context.Context, actor Actor) ([]OrderDTO, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	rows, err := s.store.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewOrderDTO(&rows[i], nil, false))
	}
	return out, nil
}

// ListAll returns every order with the purchaser's id and name.
func (s *service) ListAll(ctx context.Context) ([]OrderDTO, error) {
	rows, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.UserID]; ok {
			continue
		}
		seen[row.UserID] = struct{}{}
		ids = append(ids, row.UserID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchasers")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewOrderDTO(&rows[i], users[rows[i].UserID], false))
	}
	return out, nil
}

// MarkPaid flags the order as paid. An already paid order keeps its first
// timestamp and no second event is emitted.
func (s *service) MarkPaid(ctx context.Context, actor Actor, id string) (*OrderDTO, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return NewOrderDTO(order, nil, false), nil
	}
	user, err := s.purchaser(ctx, order.UserID)
	if err != nil {
		return nil, err
	}
	at := s.now()
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor.ref(),
		OccurredAt:    at,
		Data: payloads.OrderPaidEvent{
			OrderID:    order.ID,
			UserID:     user.ID,
			UserName:   user.Name,
			UserEmail:  user.Email,
			TotalPrice: order.TotalPrice.StringFixed(2),
			PaidAt:     at,
		},
	}
	updated, err := s.store.MarkPaid(ctx, order.ID, at, event)
	if err != nil {
		return nil, s.mapWriteErr(err, "mark order paid")
	}
	return NewOrderDTO(updated, nil, false), nil
}

// MarkDelivered flags the order as delivered with the same one-way rules as MarkPaid.
func (s *service) MarkDelivered(ctx context.Context, actor Actor, id string) (*OrderDTO, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsDelivered {
		return NewOrderDTO(order, nil, false), nil
	}
	user, err := s.purchaser(ctx, order.UserID)
	if err != nil {
		return nil, err
	}
	at := s.now()
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderDelivered,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor.ref(),
		OccurredAt:    at,
		Data: payloads.OrderDeliveredEvent{
			OrderID:     order.ID,
			UserID:      user.ID,
			UserName:    user.Name,
			UserEmail:   user.Email,
			DeliveredAt: at,
		},
	}
	updated, err := s.store.MarkDelivered(ctx, order.ID, at, event)
	if err != nil {
		return nil, s.mapWriteErr(err, "mark order delivered")
	}
	return NewOrderDTO(updated, nil, false), nil
}

func (s *service) load(ctx context.Context, id string) (*models.Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.store.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) purchaser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) mapWriteErr(err error, msg string) error {
	if repo.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func validateShipping(addr ShippingAddressDTO) error {
	missing := []string{}
	if strings.TrimSpace(addr.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(addr.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(addr.PostalCode) == "" {
		missing = append(missing, "postalCode")
	}
	if strings.TrimSpace(addr.Country) == "" {
		missing = append(missing, "country")
	}
	if len(missing) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").WithDetails(map[string]any{
		"missing": missing,
	})
}

func itemCount(items []models.OrderItem) int {
	total := 0
	for _, item := range items {
		total += item.Qty
	}
	return total
}
