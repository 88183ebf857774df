package products

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/aura-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
)

type stubStore struct {
	products  map[string]*models.Product
	created   *models.Product
	updated   *models.Product
	listErr   error
	lastQuery string
}

func newStubStore(items ...*models.Product) *stubStore {
	s := &stubStore{products: map[string]*models.Product{}}
	for _, item := range items {
		s.products[item.ID] = item
	}
	return s
}

func (s *stubStore) List(_ context.Context, keyword string) ([]models.Product, error) {
	s.lastQuery = keyword
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []models.Product{}
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubStore) FindByID(_ context.Context, id string) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubStore) FindByIDs(_ context.Context, ids []string) (map[string]*models.Product, error) {
	out := map[string]*models.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *stubStore) Create(_ context.Context, product *models.Product) (*models.Product, error) {
	product.ID = "new-id"
	s.created = product
	s.products[product.ID] = product
	return product, nil
}

func (s *stubStore) Update(_ context.Context, product *models.Product) (*models.Product, error) {
	s.updated = product
	s.products[product.ID] = product
	return product, nil
}

func (s *stubStore) Delete(_ context.Context, id string) error {
	if _, ok := s.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.products, id)
	return nil
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestCreateDefaultsImageAndRoundsPrice(t *testing.T) {
	store := newStubStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.Create(context.Background(), CreateProductInput{
		Name:  "  Void Hoodie ",
		Price: decimal.RequireFromString("120.004"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Image != DefaultImage {
		t.Fatalf("expected placeholder image, got %q", dto.Image)
	}
	if dto.Name != "Void Hoodie" {
		t.Fatalf("expected trimmed name, got %q", dto.Name)
	}
	if !dto.Price.Equal(decimal.RequireFromString("120")) {
		t.Fatalf("expected rounded price, got %s", dto.Price)
	}
	if store.created.CountInStock != 0 {
		t.Fatalf("expected zero stock default, got %d", store.created.CountInStock)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := NewService(newStubStore())

	_, err := svc.Create(context.Background(), CreateProductInput{Name: " ", Price: decimal.NewFromInt(1)})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(context.Background(), CreateProductInput{Name: "x", Price: decimal.NewFromInt(-1)})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(context.Background(), CreateProductInput{Name: "x", CountInStock: -2})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestGetMissingProduct(t *testing.T) {
	svc, _ := NewService(newStubStore())

	_, err := svc.Get(context.Background(), "missing")
	assertCode(t, err, pkgerrors.CodeNotFound)
	if msg := pkgerrors.As(err).Message(); msg != "product not found" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	store := newStubStore(&models.Product{ID: "p1", Name: "Old", Image: "img.png", Price: decimal.NewFromInt(10)})
	svc, _ := NewService(store)

	stock := 4
	empty := ""
	dto, err := svc.Update(context.Background(), "p1", UpdateProductInput{CountInStock: &stock, Image: &empty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Name != "Old" {
		t.Fatalf("expected untouched name, got %q", dto.Name)
	}
	if dto.CountInStock != 4 {
		t.Fatalf("expected stock 4, got %d", dto.CountInStock)
	}
	if dto.Image != DefaultImage {
		t.Fatalf("expected cleared image to fall back to placeholder, got %q", dto.Image)
	}
}

func TestDeleteMissingProduct(t *testing.T) {
	svc, _ := NewService(newStubStore())
	assertCode(t, svc.Delete(context.Background(), "missing"), pkgerrors.CodeNotFound)
}

func TestListWrapsStoreErrors(t *testing.T) {
	store := newStubStore()
	store.listErr = errors.New("boom")
	svc, _ := NewService(store)

	_, err := svc.List(context.Background(), "tee")
	assertCode(t, err, pkgerrors.CodeDependency)
	if store.lastQuery != "tee" {
		t.Fatalf("expected keyword forwarded, got %q", store.lastQuery)
	}
}
