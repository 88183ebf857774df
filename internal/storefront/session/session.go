// Package session owns the signed-in identity of the storefront client.
package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/angelmondragon/aura-storefront/pkg/apiclient"
	"github.com/angelmondragon/aura-storefront/pkg/clientstore"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

// Session is the persisted identity. The zero value is anonymous.
type Session struct {
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token"`
}

func (s Session) valid() bool {
	return strings.TrimSpace(s.UserID) != "" && strings.TrimSpace(s.Token) != ""
}

// API is the subset of the REST client the session needs.
type API interface {
	Login(ctx context.Context, email, password string) (*apiclient.User, error)
	Register(ctx context.Context, name, email, password string) (*apiclient.User, error)
	Logout(ctx context.Context, token string) error
}

// Observer is told about every session change. prev and next are nil when
// the respective side is anonymous.
type Observer func(ctx context.Context, prev, next *Session)

type Params struct {
	API    API
	Store  clientstore.Store
	Logger *logger.Logger
}

type Manager struct {
	api   API
	store clientstore.Store
	codec *clientstore.Codec[Session]
	logg  *logger.Logger

	mu        sync.RWMutex
	current   *Session
	observers []Observer
}

// New restores any persisted session. A corrupt blob starts anonymous.
func New(ctx context.Context, p Params) (*Manager, error) {
	if p.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session api is required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	m := &Manager{api: p.API, store: p.Store, codec: Codec(), logg: logg}
	m.restore(ctx)
	return m, nil
}

func (m *Manager) restore(ctx context.Context) {
	if m.store == nil {
		return
	}
	s, ok, err := clientstore.Load(ctx, m.store, clientstore.KeyAuth, m.codec)
	if err != nil {
		m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "discarding unreadable session state")
		return
	}
	if !ok {
		return
	}
	if !s.valid() {
		m.logg.Warn(ctx, "discarding incomplete session state")
		return
	}
	m.current = &s
}

func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := m.api.Login(ctx, email, password)
	if err != nil {
		return Session{}, authFailed(err)
	}
	return m.establish(ctx, user)
}

// Register creates the account and signs in with it. Failures always reach
// the caller.
func (m *Manager) Register(ctx context.Context, name, email, password string) (Session, error) {
	user, err := m.api.Register(ctx, name, email, password)
	if err != nil {
		return Session{}, authFailed(err)
	}
	return m.establish(ctx, user)
}

func authFailed(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeAuthFailed, err, pkgerrors.UserMessage(err))
}

func (m *Manager) establish(ctx context.Context, user *apiclient.User) (Session, error) {
	next := Session{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		Token:   user.Token,
	}
	if !next.valid() {
		return Session{}, pkgerrors.New(pkgerrors.CodeAuthFailed, "server returned an incomplete session")
	}
	m.replace(ctx, &next)
	return next, nil
}

// Logout drops the local session before any network call, then revokes the
// token server-side. Revocation failures are only logged. Observers are
// notified even when nobody was signed in.
func (m *Manager) Logout(ctx context.Context) {
	prev := m.replace(ctx, nil)
	if prev == nil {
		return
	}
	if err := m.api.Logout(ctx, prev.Token); err != nil {
		m.logg.Warn(m.logg.WithFields(ctx, map[string]any{
			"user_id": prev.UserID,
			"error":   err.Error(),
		}), "server logout failed")
	}
}

// replace swaps the session, persists it and notifies observers. It returns
// the previous session.
func (m *Manager) replace(ctx context.Context, next *Session) *Session {
	m.mu.Lock()
	prev := m.current
	m.current = next
	observers := append([]Observer(nil), m.observers...)
	m.persistLocked(ctx)
	m.mu.Unlock()

	for _, fn := range observers {
		fn(ctx, copySession(prev), copySession(next))
	}
	return prev
}

func (m *Manager) persistLocked(ctx context.Context) {
	if m.store == nil {
		return
	}
	var err error
	if m.current == nil {
		err = m.store.Delete(ctx, clientstore.KeyAuth)
	} else {
		err = clientstore.Save(ctx, m.store, clientstore.KeyAuth, m.codec, *m.current)
	}
	if err != nil {
		m.logg.Error(ctx, "failed to persist session", err)
	}
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// Token is empty when anonymous.
func (m *Manager) Token() string {
	s, _ := m.Current()
	return s.Token
}

func (m *Manager) OnChange(fn Observer) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

// CodecVersion is the current session payload version.
const CodecVersion = 1

// Codec returns the session payload codec. v0 is the legacy unversioned
// {_id, name, email, isAdmin, token} object.
func Codec() *clientstore.Codec[Session] {
	return clientstore.NewCodec[Session](CodecVersion, map[int]clientstore.Migration{
		0: migrateV0,
	})
}

func migrateV0(payload json.RawMessage) (json.RawMessage, error) {
	var legacy struct {
		ID      string `json:"_id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		IsAdmin bool   `json:"isAdmin"`
		Token   string `json:"token"`
	}
	if err := json.Unmarshal(payload, &legacy); err != nil {
		return nil, err
	}
	return json.Marshal(Session{
		UserID:  legacy.ID,
		Name:    legacy.Name,
		Email:   legacy.Email,
		IsAdmin: legacy.IsAdmin,
		Token:   legacy.Token,
	})
}
