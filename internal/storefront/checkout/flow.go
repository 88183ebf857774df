// Package checkout drives a single order submission from the shopper's draft
// to a placed order.
package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/aura-storefront/internal/storefront/cart"
	"github.com/angelmondragon/aura-storefront/internal/storefront/session"
	"github.com/angelmondragon/aura-storefront/pkg/apiclient"
	pkgcheckout "github.com/angelmondragon/aura-storefront/pkg/checkout"
	"github.com/angelmondragon/aura-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StatePlaced     State = "placed"
	StateFailed     State = "failed"
)

// Reasons carried in error details for the guard failures.
const (
	ReasonCartEmpty          = "CART_EMPTY"
	ReasonSubmissionInFlight = "SUBMISSION_IN_FLIGHT"
	ReasonAlreadyPlaced      = "ORDER_ALREADY_PLACED"
)

type API interface {
	CreateOrder(ctx context.Context, token, idempotencyKey string, req apiclient.CreateOrderRequest) (*apiclient.Order, error)
}

type Cart interface {
	Lines() []cart.Line
	IsEmpty() bool
	Clear(ctx context.Context)
}

type Sessions interface {
	Require(tier session.Tier) (session.Session, error)
}

type Params struct {
	API      API
	Cart     Cart
	Sessions Sessions
	Logger   *logger.Logger

	// CardProcessingDelay simulates the card authorisation wait. Zero skips it.
	CardProcessingDelay time.Duration
	// SubmitTimeout bounds the whole submission. Zero leaves it to ctx.
	SubmitTimeout time.Duration

	Now    func() time.Time
	NewKey func() string
}

// Flow is one pass through checkout. Once placed it stays placed; start a new
// Flow for the next order.
type Flow struct {
	api      API
	cart     Cart
	sessions Sessions
	logg     *logger.Logger

	cardDelay     time.Duration
	submitTimeout time.Duration
	now           func() time.Time
	newKey        func() string

	mu      sync.Mutex
	state   State
	draft   Draft
	lastErr string
	orderID string
}

func New(p Params) (*Flow, error) {
	if p.API == nil || p.Cart == nil || p.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout api, cart and sessions are required")
	}
	f := &Flow{
		api:           p.API,
		cart:          p.Cart,
		sessions:      p.Sessions,
		logg:          p.Logger,
		cardDelay:     p.CardProcessingDelay,
		submitTimeout: p.SubmitTimeout,
		now:           p.Now,
		newKey:        p.NewKey,
		state:         StateEditing,
		draft:         Draft{PaymentMethod: enums.PaymentMethodCashOnDelivery},
	}
	if f.logg == nil {
		f.logg = logger.Nop()
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.newKey == nil {
		f.newKey = uuid.NewString
	}
	return f, nil
}

// Enter is the checkout entry guard.
func (f *Flow) Enter() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StatePlaced {
		return nil
	}
	if _, err := f.sessions.Require(session.TierAuthenticated); err != nil {
		return err
	}
	if f.cart.IsEmpty() {
		return cartEmpty()
	}
	return nil
}

func cartEmpty() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "your cart is empty").
		WithDetails(map[string]string{"reason": ReasonCartEmpty})
}

// Edit returns a failed flow to editing.
func (f *Flow) Edit() {
	f.mu.Lock()
	if f.state == StateFailed {
		f.state = StateEditing
	}
	f.mu.Unlock()
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// LastError is the user-facing message of the last failed submission.
func (f *Flow) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Draft is the last submitted draft, kept for a retry after failure.
func (f *Flow) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

func (f *Flow) OrderID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderID
}

// Submit validates draft, places the order and clears the cart. On failure the
// flow moves to Failed and the draft is kept.
func (f *Flow) Submit(ctx context.Context, draft Draft) (string, error) {
	draft = draft.normalized()

	f.mu.Lock()
	switch f.state {
	case StateSubmitting:
		f.mu.Unlock()
		return "", pkgerrors.New(pkgerrors.CodeConflict, "your order is already being placed").
			WithDetails(map[string]string{"reason": ReasonSubmissionInFlight})
	case StatePlaced:
		f.mu.Unlock()
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "this order has already been placed").
			WithDetails(map[string]string{"reason": ReasonAlreadyPlaced})
	}
	if err := draft.Validate(); err != nil {
		f.mu.Unlock()
		return "", err
	}
	s, err := f.sessions.Require(session.TierAuthenticated)
	if err != nil {
		f.mu.Unlock()
		return "", err
	}
	lines := f.cart.Lines()
	if len(lines) == 0 {
		f.mu.Unlock()
		return "", cartEmpty()
	}
	f.state = StateSubmitting
	f.draft = draft
	f.lastErr = ""
	f.mu.Unlock()

	orderID, err := f.place(ctx, s, draft, lines)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateFailed
		f.lastErr = pkgerrors.UserMessage(err)
		f.logg.Warn(f.logg.WithFields(ctx, map[string]any{
			"user_id": s.UserID,
			"error":   err.Error(),
		}), "order submission failed")
		return "", err
	}
	f.state = StatePlaced
	f.orderID = orderID
	f.cart.Clear(ctx)
	f.logg.Info(f.logg.WithOrderID(f.logg.WithUserID(ctx, s.UserID), orderID), "order placed")
	return orderID, nil
}

func (f *Flow) place(ctx context.Context, s session.Session, draft Draft, lines []cart.Line) (string, error) {
	if f.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.submitTimeout)
		defer cancel()
	}

	if draft.PaymentMethod == enums.PaymentMethodCard && f.cardDelay > 0 {
		timer := time.NewTimer(f.cardDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", interrupted(ctx.Err())
		}
	}

	order, err := f.api.CreateOrder(ctx, s.Token, f.newKey(), f.buildRequest(draft, lines))
	if err != nil {
		return "", err
	}
	if order == nil || order.ID == "" {
		return "", pkgerrors.New(pkgerrors.CodeServer, "the server did not return an order id")
	}
	return order.ID, nil
}

func interrupted(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "request timed out")
	}
	return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "request cancelled")
}

func (f *Flow) buildRequest(draft Draft, lines []cart.Line) apiclient.CreateOrderRequest {
	totals := pkgcheckout.Compute(cart.PricedLines(lines))
	items := make([]apiclient.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, apiclient.OrderItem{
			Name:    line.Name,
			Qty:     line.Quantity,
			Image:   line.Image,
			Price:   line.UnitPrice,
			Product: line.ProductID,
		})
	}
	req := apiclient.CreateOrderRequest{
		OrderItems: items,
		ShippingAddress: apiclient.ShippingAddress{
			Address:    draft.Shipping.Address,
			City:       draft.Shipping.City,
			PostalCode: draft.Shipping.PostalCode,
			Country:    draft.Shipping.Country,
		},
		PaymentMethod: draft.PaymentMethod.String(),
		ItemsPrice:    totals.ItemsPrice,
		ShippingPrice: totals.ShippingPrice,
		TotalPrice:    totals.TotalPrice,
	}
	if draft.PaymentMethod.PrePaid() {
		paidAt := f.now().UTC()
		req.IsPaid = true
		req.PaidAt = &paidAt
	}
	return req
}
