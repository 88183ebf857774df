// Package clientstore persists storefront client state (cart, session) as
// versioned JSON blobs under fixed keys.
package clientstore

import (
	"context"
	"errors"
)

// Keys used by the storefront managers.
const (
	KeyCart = "auraCart"
	KeyAuth = "auraAuth"
)

var (
	// ErrUnsupportedVersion is returned when a stored blob has a version with
	// no migration path to the current one.
	ErrUnsupportedVersion = errors.New("clientstore: unsupported payload version")
	// ErrCorrupt is returned when a stored blob is not valid JSON.
	ErrCorrupt = errors.New("clientstore: corrupt payload")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("clientstore: store closed")
)

// Store is a durable key/value mechanism with a single reader/writer per client.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Load reads key and decodes it with codec. A missing key reports ok=false
// with no error.
func Load[T any](ctx context.Context, store Store, key string, codec *Codec[T]) (T, bool, error) {
	var zero T
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	value, err := codec.Decode(raw)
	if err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// Save encodes value with codec and writes it under key.
func Save[T any](ctx context.Context, store Store, key string, codec *Codec[T], value T) error {
	raw, err := codec.Encode(value)
	if err != nil {
		return err
	}
	return store.Put(ctx, key, raw)
}
