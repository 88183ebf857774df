// Package cart keeps the storefront cart: one line per product, mirrored to
// the client store on every mutation.
package cart

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/aura-storefront/pkg/checkout"
	"github.com/angelmondragon/aura-storefront/pkg/clientstore"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

// Product is what the catalogue hands the cart when a shopper adds an item.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Image string
}

type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

// Total is unitPrice x quantity at full precision.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Manager is safe for concurrent use. Mutations are last-writer-wins.
type Manager struct {
	mu    sync.Mutex
	lines []Line
	open  bool

	store clientstore.Store
	codec *clientstore.Codec[[]Line]
	logg  *logger.Logger
}

// New restores the cart from store. Missing or unreadable state starts an
// empty cart.
func New(ctx context.Context, store clientstore.Store, logg *logger.Logger) *Manager {
	if logg == nil {
		logg = logger.Nop()
	}
	m := &Manager{store: store, codec: Codec(), logg: logg}
	m.restore(ctx)
	return m
}

func (m *Manager) restore(ctx context.Context) {
	if m.store == nil {
		return
	}
	lines, ok, err := clientstore.Load(ctx, m.store, clientstore.KeyCart, m.codec)
	if err != nil {
		m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "discarding unreadable cart state")
		return
	}
	if !ok {
		return
	}
	m.lines = normalize(lines)
}

// normalize enforces one line per product and quantity >= 1 on restored data.
func normalize(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	index := map[string]int{}
	for _, line := range lines {
		line.ProductID = strings.TrimSpace(line.ProductID)
		if line.ProductID == "" || line.Quantity < 1 || line.UnitPrice.IsNegative() {
			continue
		}
		if i, dup := index[line.ProductID]; dup {
			out[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(out)
		out = append(out, line)
	}
	return out
}

// AddItem increments the product's line or appends a new one, and opens the cart.
func (m *Manager) AddItem(ctx context.Context, p Product) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(p.ID); i >= 0 {
		m.lines[i].Quantity++
	} else {
		m.lines = append(m.lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Image:     p.Image,
			Quantity:  1,
		})
	}
	m.open = true
	m.persistLocked(ctx)
}

func (m *Manager) RemoveItem(ctx context.Context, productID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(productID)
	if i < 0 {
		return
	}
	m.lines = append(m.lines[:i], m.lines[i+1:]...)
	m.persistLocked(ctx)
}

// SetQuantity overwrites a line's quantity. qty <= 0 removes the line.
func (m *Manager) SetQuantity(ctx context.Context, productID string, qty int) {
	if qty <= 0 {
		m.RemoveItem(ctx, productID)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(productID)
	if i < 0 {
		return
	}
	m.lines[i].Quantity = qty
	m.persistLocked(ctx)
}

func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = nil
	m.persistLocked(ctx)
}

func (m *Manager) Subtotal() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return checkout.Subtotal(pricedLines(m.lines))
}

func (m *Manager) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, line := range m.lines {
		n += line.Quantity
	}
	return n
}

// Lines returns a copy of the current lines in insertion order.
func (m *Manager) Lines() []Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Line(nil), m.lines...)
}

func (m *Manager) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines) == 0
}

func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *Manager) SetOpen(open bool) {
	m.mu.Lock()
	m.open = open
	m.mu.Unlock()
}

func (m *Manager) Toggle() {
	m.mu.Lock()
	m.open = !m.open
	m.mu.Unlock()
}

func (m *Manager) indexOf(productID string) int {
	for i, line := range m.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

// persistLocked writes the whole collection. A failed write is logged and the
// in-memory mutation stands.
func (m *Manager) persistLocked(ctx context.Context) {
	if m.store == nil {
		return
	}
	lines := m.lines
	if lines == nil {
		lines = []Line{}
	}
	if err := clientstore.Save(ctx, m.store, clientstore.KeyCart, m.codec, lines); err != nil {
		m.logg.Error(m.logg.WithField(ctx, "lines", len(lines)), "failed to persist cart", err)
	}
}

// PricedLines adapts cart lines to the shared pricing rule.
func PricedLines(lines []Line) []checkout.PricedLine {
	return pricedLines(lines)
}

func pricedLines(lines []Line) []checkout.PricedLine {
	out := make([]checkout.PricedLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, checkout.PricedLine{UnitPrice: line.UnitPrice, Quantity: line.Quantity})
	}
	return out
}

// CodecVersion is the current cart payload version.
const CodecVersion = 1

// Codec returns the cart payload codec. v0 is the unversioned legacy array
// of {_id, name, price, image, qty}.
func Codec() *clientstore.Codec[[]Line] {
	return clientstore.NewCodec[[]Line](CodecVersion, map[int]clientstore.Migration{
		0: migrateV0,
	})
}

func migrateV0(payload json.RawMessage) (json.RawMessage, error) {
	var legacy []struct {
		ID    string          `json:"_id"`
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
		Image string          `json:"image"`
		Qty   int             `json:"qty"`
	}
	if err := json.Unmarshal(payload, &legacy); err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(legacy))
	for _, l := range legacy {
		lines = append(lines, Line{ProductID: l.ID, Name: l.Name, UnitPrice: l.Price, Image: l.Image, Quantity: l.Qty})
	}
	return json.Marshal(lines)
}
