package orders

import (
	"context"
	"sort"
	"time"

	"github.com/angelmondragon/aura-storefront/pkg/db/models"
	"github.com/angelmondragon/aura-storefront/pkg/outbox"
)

// Store is the persistence surface shared by the SQL and document backends.
//
// Create, MarkPaid and MarkDelivered carry the domain event describing the
// change. Backends emit it only when the write actually happens, so a repeated
// MarkPaid neither moves the timestamp nor emits twice.
type Store interface {
	Create(ctx context.Context, order *models.Order, event outbox.DomainEvent) (*models.Order, error)
	FindByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	MarkPaid(ctx context.Context, id string, at time.Time, event outbox.DomainEvent) (*models.Order, error)
	MarkDelivered(ctx context.Context, id string, at time.Time, event outbox.DomainEvent) (*models.Order, error)
}

func sortItems(order *models.Order) {
	sort.SliceStable(order.Items, func(i, j int) bool {
		return order.Items[i].Position < order.Items[j].Position
	})
}
