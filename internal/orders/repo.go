package orders

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/aura-storefront/internal/repo"
	"github.com/angelmondragon/aura-storefront/pkg/db/models"
	"github.com/angelmondragon/aura-storefront/pkg/outbox"
)

type eventEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Repository persists orders over GORM. Order events are written to the
// outbox table in the same transaction as the order change.
type Repository struct {
	repo.Base
	events eventEmitter
}

// NewRepository binds the orders repository to conn and the outbox emitter.
func NewRepository(conn *gorm.DB, events eventEmitter) (*Repository, error) {
	if conn == nil {
		return nil, errors.New("gorm db required")
	}
	if events == nil {
		return nil, errors.New("outbox emitter required")
	}
	return &Repository{Base: repo.NewBase(conn), events: events}, nil
}

func (r *Repository) Create(ctx context.Context, order *models.Order, event outbox.DomainEvent) (*models.Order, error) {
	err := r.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return r.events.EmitIfNotExists(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	sortItems(order)
	return order, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	return findOrder(r.DB(ctx), id)
}

// ListByUser returns the user's orders, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var rows []models.Order
	err := withItems(r.DB(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListAll returns every order, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]models.Order, error) {
	var rows []models.Order
	err := withItems(r.DB(ctx)).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPaid(ctx context.Context, id string, at time.Time, event outbox.DomainEvent) (*models.Order, error) {
	return r.transition(ctx, id, "is_paid", map[string]any{
		"is_paid":    true,
		"paid_at":    at,
		"updated_at": at,
	}, event)
}

func (r *Repository) MarkDelivered(ctx context.Context, id string, at time.Time, event outbox.DomainEvent) (*models.Order, error) {
	return r.transition(ctx, id, "is_delivered", map[string]any{
		"is_delivered": true,
		"delivered_at": at,
		"updated_at":   at,
	}, event)
}

// transition flips a boolean flag once. The event is emitted only by the call
// that performed the flip.
func (r *Repository) transition(ctx context.Context, id, flag string, updates map[string]any, event outbox.DomainEvent) (*models.Order, error) {
	var out *models.Order
	err := r.Tx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND "+flag+" = ?", id, false).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			if err := r.events.EmitIfNotExists(ctx, tx, event); err != nil {
				return err
			}
		}
		order, err := findOrder(tx, id)
		if err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func withItems(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func findOrder(tx *gorm.DB, id string) (*models.Order, error) {
	var order models.Order
	if err := withItems(tx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}
