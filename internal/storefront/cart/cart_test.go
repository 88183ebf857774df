package cart

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/aura-storefront/pkg/clientstore"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

var (
	tee    = Product{ID: "p1", Name: "Essential Tee", Price: decimal.RequireFromString("45.00"), Image: "tee.png"}
	beanie = Product{ID: "p2", Name: "Signal Beanie", Price: decimal.RequireFromString("35.10"), Image: "beanie.png"}
)

type failingStore struct {
	clientstore.Store
}

func (failingStore) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestAddItemIncrementsAndOpens(t *testing.T) {
	ctx := context.Background()
	m := New(ctx, clientstore.NewMemory(), logger.Nop())

	m.AddItem(ctx, tee)
	m.AddItem(ctx, tee)
	m.AddItem(ctx, beanie)

	lines := m.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 3, m.ItemCount())
	assert.True(t, m.IsOpen())
	assert.True(t, m.Subtotal().Equal(decimal.RequireFromString("125.10")))
}

func TestSetQuantityAndRemove(t *testing.T) {
	ctx := context.Background()
	m := New(ctx, clientstore.NewMemory(), nil)
	m.AddItem(ctx, tee)
	m.AddItem(ctx, beanie)

	m.SetQuantity(ctx, "p1", 5)
	assert.Equal(t, 6, m.ItemCount())

	m.SetQuantity(ctx, "missing", 3)
	m.RemoveItem(ctx, "missing")
	assert.Equal(t, 6, m.ItemCount())

	m.SetQuantity(ctx, "p1", 0)
	lines := m.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "p2", lines[0].ProductID)

	m.SetQuantity(ctx, "p2", -1)
	assert.True(t, m.IsEmpty())
}

func TestAddThenRemoveRestoresSubtotal(t *testing.T) {
	ctx := context.Background()
	m := New(ctx, clientstore.NewMemory(), nil)
	m.AddItem(ctx, tee)
	before := m.Subtotal()

	m.AddItem(ctx, beanie)
	m.RemoveItem(ctx, beanie.ID)
	assert.True(t, before.Equal(m.Subtotal()))
}

func TestRandomSequencesKeepInvariants(t *testing.T) {
	ctx := context.Background()
	m := New(ctx, clientstore.NewMemory(), nil)
	products := []Product{tee, beanie, {ID: "p3", Price: decimal.NewFromInt(1)}}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		p := products[rng.Intn(len(products))]
		switch rng.Intn(3) {
		case 0:
			m.AddItem(ctx, p)
		case 1:
			m.RemoveItem(ctx, p.ID)
		default:
			m.SetQuantity(ctx, p.ID, rng.Intn(5)-1)
		}

		seen := map[string]bool{}
		want := decimal.Zero
		for _, line := range m.Lines() {
			require.False(t, seen[line.ProductID], "duplicate line for %s", line.ProductID)
			require.GreaterOrEqual(t, line.Quantity, 1)
			seen[line.ProductID] = true
			want = want.Add(line.Total())
		}
		require.True(t, want.Equal(m.Subtotal()))
	}
}

func TestPersistAndRestore(t *testing.T) {
	ctx := context.Background()
	store := clientstore.NewMemory()
	m := New(ctx, store, nil)
	m.AddItem(ctx, tee)
	m.AddItem(ctx, tee)
	m.AddItem(ctx, beanie)

	restored := New(ctx, store, nil)
	requireSameLines(t, m.Lines(), restored.Lines())
	assert.True(t, m.Subtotal().Equal(restored.Subtotal()))
	assert.False(t, restored.IsOpen())

	m.Clear(ctx)
	assert.Empty(t, New(ctx, store, nil).Lines())
}

func TestPersistKeepsSubCentPrices(t *testing.T) {
	ctx := context.Background()
	store := clientstore.NewMemory()
	odd := Product{ID: "p7", Name: "Sample Sock", Price: decimal.RequireFromString("33.335")}
	m := New(ctx, store, nil)
	m.AddItem(ctx, odd)
	m.AddItem(ctx, odd)
	m.AddItem(ctx, odd)

	restored := New(ctx, store, nil)
	requireSameLines(t, m.Lines(), restored.Lines())
	assert.True(t, decimal.RequireFromString("100.005").Equal(restored.Subtotal()))
}

// requireSameLines compares prices by value; decimals that round-trip
// through JSON may come back with a different exponent.
func requireSameLines(t *testing.T, want, got []Line) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ProductID, got[i].ProductID)
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Image, got[i].Image)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.True(t, want[i].UnitPrice.Equal(got[i].UnitPrice), "line %d price %s != %s", i, want[i].UnitPrice, got[i].UnitPrice)
	}
}

func TestRestoreToleratesBadState(t *testing.T) {
	ctx := context.Background()

	for name, blob := range map[string]string{
		"corrupt":        `{"version":1,"payload":[{"productId":`,
		"future version": `{"version":42,"payload":[]}`,
		"wrong shape":    `{"version":1,"payload":{"a":1}}`,
	} {
		t.Run(name, func(t *testing.T) {
			store := clientstore.NewMemory()
			require.NoError(t, store.Put(ctx, clientstore.KeyCart, []byte(blob)))
			assert.Empty(t, New(ctx, store, nil).Lines())
		})
	}
}

func TestRestoreMigratesLegacyLines(t *testing.T) {
	ctx := context.Background()
	store := clientstore.NewMemory()
	legacy := `[{"_id":"p1","name":"Essential Tee","price":45,"image":"tee.png","qty":2},` +
		`{"_id":"p1","name":"Essential Tee","price":45,"image":"tee.png","qty":1},` +
		`{"_id":"p9","name":"Ghost","price":5,"qty":0}]`
	require.NoError(t, store.Put(ctx, clientstore.KeyCart, []byte(legacy)))

	lines := New(ctx, store, nil).Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "p1", lines[0].ProductID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.NewFromInt(45)))
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	m := New(ctx, failingStore{Store: clientstore.NewMemory()}, nil)
	m.AddItem(ctx, tee)
	assert.Equal(t, 1, m.ItemCount())
}

func TestConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	m := New(ctx, clientstore.NewMemory(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.AddItem(ctx, tee)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, m.ItemCount())
	assert.Len(t, m.Lines(), 1)
}

func TestToggle(t *testing.T) {
	m := New(context.Background(), nil, nil)
	m.Toggle()
	assert.True(t, m.IsOpen())
	m.SetOpen(false)
	assert.False(t, m.IsOpen())
}
