package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/aura-storefront/pkg/db/models"
	"github.com/angelmondragon/aura-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
	"github.com/angelmondragon/aura-storefront/pkg/outbox"
	"github.com/angelmondragon/aura-storefront/pkg/outbox/payloads"
)

type stubStore struct {
	orders  map[string]*models.Order
	events  []outbox.DomainEvent
	failErr error
}

func newStubStore() *stubStore {
	return &stubStore{orders: map[string]*models.Order{}}
}

func (s *stubStore) Create(ctx context.Context, order *models.Order, event outbox.DomainEvent) (*models.Order, error) {
	if s.failErr != nil {
		return nil, s.failErr
	}
	s.orders[order.ID] = order
	s.events = append(s.events, event)
	return order, nil
}

func (s *stubStore) FindByID(ctx context.Context, id string) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubStore) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubStore) ListAll(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *stubStore) MarkPaid(ctx context.Context, id string, at time.Time, event outbox.DomainEvent) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if !order.IsPaid {
		order.IsPaid = true
		order.PaidAt = &at
		s.events = append(s.events, event)
	}
	return order, nil
}

func (s *stubStore) MarkDelivered(ctx context.Context, id string, at time.Time, event outbox.DomainEvent) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if !order.IsDelivered {
		order.IsDelivered = true
		order.DeliveredAt = &at
		s.events = append(s.events, event)
	}
	return order, nil
}

type stubUsers struct {
	users map[string]*models.User
}

func (s stubUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s stubUsers) FindByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := map[string]*models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (Service, *stubStore) {
	t.Helper()
	store := newStubStore()
	svc, err := NewService(ServiceParams{
		OrderStore: store,
		UserStore: stubUsers{users: map[string]*models.User{
			"u1":    {ID: "u1", Name: "Jane", Email: "jane@example.com"},
			"u2":    {ID: "u2", Name: "Sam", Email: "sam@example.com"},
			"admin": {ID: "admin", Name: "Admin", Email: "admin@aura.com", IsAdmin: true},
		}},
		Now: func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func validRequest() CreateOrderRequest {
	return CreateOrderRequest{
		OrderItems: []OrderItemDTO{
			{Name: "Cap", Qty: 2, Price: decimal.RequireFromString("25.00"), Product: "p1"},
			{Name: "Tee", Qty: 1, Price: decimal.RequireFromString("40.00"), Product: "p2"},
		},
		ShippingAddress: ShippingAddressDTO{Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "USA"},
		PaymentMethod:   string(enums.PaymentMethodCashOnDelivery),
		ItemsPrice:      decimal.RequireFromString("90"),
		ShippingPrice:   decimal.RequireFromString("10"),
		TotalPrice:      decimal.RequireFromString("100"),
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected %s error, got %v", code, err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s (%s)", code, typed.Code(), typed.Message())
	}
}

func TestCreateOrderEmitsCreatedEvent(t *testing.T) {
	svc, store := newTestService(t)

	dto, err := svc.Create(context.Background(), Actor{UserID: "u1"}, validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.ID == "" || dto.User != "u1" {
		t.Fatalf("unexpected order %+v", dto)
	}
	if dto.IsPaid || dto.PaidAt != nil {
		t.Fatal("cash on delivery order must start unpaid")
	}
	if len(dto.OrderItems) != 2 || dto.OrderItems[0].Product != "p1" {
		t.Fatalf("unexpected items %+v", dto.OrderItems)
	}
	if len(store.events) != 1 || store.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("expected one order_created event, got %+v", store.events)
	}
	payload, ok := store.events[0].Data.(payloads.OrderCreatedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", store.events[0].Data)
	}
	if payload.UserEmail != "jane@example.com" || payload.ItemCount != 3 || payload.TotalPrice != "100.00" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	svc, store := newTestService(t)
	req := validRequest()
	req.OrderItems = nil

	_, err := svc.Create(context.Background(), Actor{UserID: "u1"}, req)
	assertCode(t, err, pkgerrors.CodeValidation)
	if pkgerrors.As(err).Message() != "no order items" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
	if len(store.orders) != 0 {
		t.Fatal("nothing should be persisted")
	}
}

func TestCreateOrderRejectsMismatchedTotals(t *testing.T) {
	svc, _ := newTestService(t)
	req := validRequest()
	req.ShippingPrice = decimal.Zero
	req.TotalPrice = decimal.RequireFromString("90")

	_, err := svc.Create(context.Background(), Actor{UserID: "u1"}, req)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateOrderFreeShippingAboveThreshold(t *testing.T) {
	svc, _ := newTestService(t)
	req := validRequest()
	req.OrderItems[1].Price = decimal.RequireFromString("50.01")
	req.ItemsPrice = decimal.RequireFromString("100.01")
	req.ShippingPrice = decimal.Zero
	req.TotalPrice = decimal.RequireFromString("100.01")

	dto, err := svc.Create(context.Background(), Actor{UserID: "u1"}, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !dto.ShippingPrice.IsZero() {
		t.Fatalf("expected free shipping, got %s", dto.ShippingPrice)
	}
}

func TestCreateOrderCardMayBePaid(t *testing.T) {
	svc, _ := newTestService(t)
	req := validRequest()
	req.PaymentMethod = string(enums.PaymentMethodCard)
	req.IsPaid = true
	paidAt := fixedNow.Add(-time.Second)
	req.PaidAt = &paidAt

	dto, err := svc.Create(context.Background(), Actor{UserID: "u1"}, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !dto.IsPaid || dto.PaidAt == nil || !dto.PaidAt.Equal(paidAt) {
		t.Fatalf("expected paid order, got %+v", dto)
	}

	cod := validRequest()
	cod.IsPaid = true
	_, err = svc.Create(context.Background(), Actor{UserID: "u1"}, cod)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateOrderValidatesShippingAndMethod(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRequest()
	req.ShippingAddress.City = " "
	_, err := svc.Create(context.Background(), Actor{UserID: "u1"}, req)
	assertCode(t, err, pkgerrors.CodeValidation)

	req = validRequest()
	req.PaymentMethod = "Bitcoin"
	_, err = svc.Create(context.Background(), Actor{UserID: "u1"}, req)
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(context.Background(), Actor{}, validRequest())
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestCreateOrderStoreFailure(t *testing.T) {
	svc, store := newTestService(t)
	store.failErr = errors.New("boom")

	_, err := svc.Create(context.Background(), Actor{UserID: "u1"}, validRequest())
	assertCode(t, err, pkgerrors.CodeDependency)
}

func TestGetOrderVisibility(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), Actor{UserID: "u1"}, validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	own, err := svc.Get(context.Background(), Actor{UserID: "u1"}, created.ID)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	purchaser, ok := own.User.(PurchaserDTO)
	if !ok || purchaser.Email != "jane@example.com" || purchaser.Name != "Jane" {
		t.Fatalf("expected populated purchaser, got %#v", own.User)
	}

	_, err = svc.Get(context.Background(), Actor{UserID: "u2"}, created.ID)
	assertCode(t, err, pkgerrors.CodeNotFound)

	if _, err := svc.Get(context.Background(), Actor{UserID: "admin", IsAdmin: true}, created.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}

	_, err = svc.Get(context.Background(), Actor{UserID: "u1"}, "missing")
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestListMineAndAll(t *testing.T) {
	svc, _ := newTestService(t)
	for _, user := range []string{"u1", "u1", "u2"} {
		if _, err := svc.Create(context.Background(), Actor{UserID: user}, validRequest()); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	mine, err := svc.ListMine(context.Background(), Actor{UserID: "u1"})
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(mine))
	}

	all, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(all))
	}
	for _, o := range all {
		p, ok := o.User.(PurchaserDTO)
		if !ok || p.Name == "" || p.Email != "" {
			t.Fatalf("expected purchaser id and name only, got %#v", o.User)
		}
	}
}

func TestMarkPaidKeepsFirstTimestamp(t *testing.T) {
	svc, store := newTestService(t)
	created, err := svc.Create(context.Background(), Actor{UserID: "u1"}, validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	admin := Actor{UserID: "admin", IsAdmin: true}

	paid, err := svc.MarkPaid(context.Background(), admin, created.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if !paid.IsPaid || paid.PaidAt == nil || !paid.PaidAt.Equal(fixedNow) {
		t.Fatalf("unexpected paid order %+v", paid)
	}

	again, err := svc.MarkPaid(context.Background(), admin, created.ID)
	if err != nil {
		t.Fatalf("mark paid again: %v", err)
	}
	if !again.PaidAt.Equal(fixedNow) {
		t.Fatalf("paidAt moved to %v", again.PaidAt)
	}

	paidEvents := 0
	for _, e := range store.events {
		if e.EventType == enums.EventOrderPaid {
			paidEvents++
			if e.Actor == nil || e.Actor.Role != "admin" {
				t.Fatalf("unexpected actor %+v", e.Actor)
			}
		}
	}
	if paidEvents != 1 {
		t.Fatalf("expected one order_paid event, got %d", paidEvents)
	}
}

func TestMarkDelivered(t *testing.T) {
	svc, store := newTestService(t)
	created, err := svc.Create(context.Background(), Actor{UserID: "u1"}, validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	delivered, err := svc.MarkDelivered(context.Background(), Actor{UserID: "admin", IsAdmin: true}, created.ID)
	if err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	if !delivered.IsDelivered || delivered.DeliveredAt == nil {
		t.Fatalf("unexpected order %+v", delivered)
	}
	last := store.events[len(store.events)-1]
	if last.EventType != enums.EventOrderDelivered {
		t.Fatalf("expected order_delivered, got %s", last.EventType)
	}

	_, err = svc.MarkDelivered(context.Background(), Actor{UserID: "admin", IsAdmin: true}, "missing")
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestNewServiceRequiresStores(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error without stores")
	}
}
