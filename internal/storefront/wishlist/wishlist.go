// Package wishlist mirrors the signed-in user's wishlist and keeps it in
// step with the server.
package wishlist

import (
	"context"
	"sync"

	"github.com/angelmondragon/aura-storefront/internal/storefront/notify"
	"github.com/angelmondragon/aura-storefront/internal/storefront/session"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

type API interface {
	Wishlist(ctx context.Context, token string) ([]string, error)
	ToggleWishlist(ctx context.Context, token, productID string) ([]string, error)
}

// Sessions is the part of the session manager the wishlist follows.
type Sessions interface {
	Current() (session.Session, bool)
	OnChange(fn session.Observer)
}

type Params struct {
	API      API
	Sessions Sessions
	Notifier notify.Notifier
	Logger   *logger.Logger
}

// Manager applies server responses in issue order. Each request takes the
// next sequence number; a session change bumps the generation. A response
// lands only if its generation is current and its sequence is newer than the
// last one applied.
type Manager struct {
	api      API
	sessions Sessions
	notifier notify.Notifier
	logg     *logger.Logger

	mu         sync.Mutex
	ids        []string
	generation uint64
	issued     uint64
	applied    uint64
	closed     bool
	inflight   sync.WaitGroup
}

// New subscribes to session changes and, when a session is already present,
// starts loading its wishlist in the background.
func New(ctx context.Context, p Params) (*Manager, error) {
	if p.API == nil || p.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "wishlist api and sessions are required")
	}
	m := &Manager{
		api:      p.API,
		sessions: p.Sessions,
		notifier: p.Notifier,
		logg:     p.Logger,
	}
	if m.notifier == nil {
		m.notifier = notify.Nop()
	}
	if m.logg == nil {
		m.logg = logger.Nop()
	}
	p.Sessions.OnChange(m.onSessionChange)
	if s, ok := p.Sessions.Current(); ok {
		m.mu.Lock()
		m.refreshLocked(ctx, s.Token)
		m.mu.Unlock()
	}
	return m, nil
}

func (m *Manager) IsWishlisted(productID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.ids {
		if id == productID {
			return true
		}
	}
	return false
}

// IDs returns a copy of the wishlist in server order.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.ids...)
}

// Toggle flips productID on the server and adopts the returned wishlist.
// The token and the generation are read under one lock, so a response for a
// replaced session is always discarded.
func (m *Manager) Toggle(ctx context.Context, productID string) error {
	m.mu.Lock()
	s, ok := m.sessions.Current()
	if !ok {
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeAuthRequired, "please sign in to use your wishlist")
	}
	generation, seq := m.nextLocked()
	m.mu.Unlock()

	ids, err := m.api.ToggleWishlist(ctx, s.Token, productID)
	if err != nil {
		m.logg.Warn(m.logg.WithFields(ctx, map[string]any{
			"product_id": productID,
			"error":      err.Error(),
		}), "wishlist toggle failed")
		m.notifier.Notify(ctx, notify.Notification{
			Level:   notify.LevelError,
			Message: pkgerrors.UserMessage(err),
		})
		return err
	}
	m.apply(ctx, generation, seq, ids)
	return nil
}

// Wait blocks until background refreshes have finished.
func (m *Manager) Wait() {
	m.inflight.Wait()
}

// Close stops new refreshes and waits for running ones.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.Wait()
	return nil
}

func (m *Manager) onSessionChange(ctx context.Context, _, next *session.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.ids = nil
	if next != nil {
		m.refreshLocked(ctx, next.Token)
	}
}

func (m *Manager) nextLocked() (uint64, uint64) {
	m.issued++
	return m.generation, m.issued
}

// refreshLocked fetches the wishlist asynchronously. The caller's
// cancellation does not reach the fetch.
func (m *Manager) refreshLocked(ctx context.Context, token string) {
	if m.closed {
		return
	}
	generation, seq := m.nextLocked()
	ctx = context.WithoutCancel(ctx)
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		ids, err := m.api.Wishlist(ctx, token)
		if err != nil {
			m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "wishlist refresh failed")
			return
		}
		m.apply(ctx, generation, seq, ids)
	}()
}

func (m *Manager) apply(ctx context.Context, generation, seq uint64, ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if generation != m.generation || seq <= m.applied {
		m.logg.Info(m.logg.WithFields(ctx, map[string]any{
			"generation":         generation,
			"current_generation": m.generation,
			"seq":                seq,
			"applied_seq":        m.applied,
		}), "discarding stale wishlist response")
		return
	}
	m.applied = seq
	m.ids = append([]string{}, ids...)
}
