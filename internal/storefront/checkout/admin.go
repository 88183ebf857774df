package checkout

import (
	"context"
	"strings"

	"github.com/angelmondragon/aura-storefront/internal/storefront/session"
	"github.com/angelmondragon/aura-storefront/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

type AdminAPI interface {
	MarkPaid(ctx context.Context, token, id string) (*apiclient.Order, error)
	MarkDelivered(ctx context.Context, token, id string) (*apiclient.Order, error)
}

// Admin performs the one-way order transitions. Access is checked locally
// before any request; the server checks again.
type Admin struct {
	api      AdminAPI
	sessions Sessions
	logg     *logger.Logger
}

func NewAdmin(api AdminAPI, sessions Sessions, logg *logger.Logger) *Admin {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Admin{api: api, sessions: sessions, logg: logg}
}

func (a *Admin) MarkPaid(ctx context.Context, orderID string) (*apiclient.Order, error) {
	return a.transition(ctx, orderID, "paid", a.api.MarkPaid)
}

func (a *Admin) MarkDelivered(ctx context.Context, orderID string) (*apiclient.Order, error) {
	return a.transition(ctx, orderID, "delivered", a.api.MarkDelivered)
}

func (a *Admin) transition(
	ctx context.Context,
	orderID, action string,
	call func(ctx context.Context, token, id string) (*apiclient.Order, error),
) (*apiclient.Order, error) {
	s, err := a.sessions.Require(session.TierAdmin)
	if err != nil {
		return nil, err
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := call(ctx, s.Token, orderID)
	if err != nil {
		return nil, err
	}
	a.logg.Info(a.logg.WithFields(a.logg.WithOrderID(ctx, orderID), map[string]any{
		"actor_id": s.UserID,
		"action":   action,
	}), "order marked")
	return order, nil
}
