package wishlist

import "context"

// Store persists the per-user set of wishlisted product ids in insertion order.
type Store interface {
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) (bool, error)
	ListProductIDs(ctx context.Context, userID string) ([]string, error)
}
