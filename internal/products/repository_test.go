package products

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/aura-storefront/internal/repo"
	"github.com/angelmondragon/aura-storefront/pkg/db/dbtest"
	"github.com/angelmondragon/aura-storefront/pkg/db/models"
)

func seedProduct(t *testing.T, r *Repository, name string, price string, createdAt time.Time) *models.Product {
	t.Helper()
	product, err := r.Create(context.Background(), &models.Product{
		Name:      name,
		Image:     DefaultImage,
		Price:     decimal.RequireFromString(price),
		Rating:    decimal.Zero,
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
	return product
}

func TestRepositoryListKeywordNewestFirst(t *testing.T) {
	r := NewRepository(dbtest.Open(t).DB())
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	seedProduct(t, r, "Void Hoodie", "120.00", base)
	seedProduct(t, r, "Essential T-Shirt", "45.00", base.Add(time.Minute))
	seedProduct(t, r, "Hoodie 100% Cotton", "99.50", base.Add(2*time.Minute))

	all, err := r.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Hoodie 100% Cotton", all[0].Name)
	assert.Equal(t, "Void Hoodie", all[2].Name)

	hoodies, err := r.List(context.Background(), "  HOODIE ")
	require.NoError(t, err)
	require.Len(t, hoodies, 2)
	assert.Equal(t, "Hoodie 100% Cotton", hoodies[0].Name)
	assert.Equal(t, "Void Hoodie", hoodies[1].Name)

	percent, err := r.List(context.Background(), "100%")
	require.NoError(t, err)
	require.Len(t, percent, 1)
	assert.True(t, percent[0].Price.Equal(decimal.RequireFromString("99.5")))
}

func TestRepositoryUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(dbtest.Open(t).DB())
	product := seedProduct(t, r, "Cargo Pants", "80.00", time.Now().UTC())

	product.CountInStock = 7
	product.Price = decimal.RequireFromString("75.25")
	updated, err := r.Update(ctx, product)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.CountInStock)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("75.25")))

	require.NoError(t, r.Delete(ctx, product.ID))
	err = r.Delete(ctx, product.ID)
	assert.True(t, repo.IsNotFound(err))

	_, err = r.Update(ctx, product)
	assert.True(t, repo.IsNotFound(err))
}

func TestRepositoryFindByIDs(t *testing.T) {
	r := NewRepository(dbtest.Open(t).DB())
	a := seedProduct(t, r, "A", "1.00", time.Now().UTC())
	b := seedProduct(t, r, "B", "2.00", time.Now().UTC())

	found, err := r.FindByIDs(context.Background(), []string{a.ID, b.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "B", found[b.ID].Name)
}
