package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/aura-storefront/internal/users"
	"github.com/angelmondragon/aura-storefront/pkg/config"
	"github.com/angelmondragon/aura-storefront/pkg/db/models"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
	"github.com/angelmondragon/aura-storefront/pkg/security"
)

const (
	AdminName     = "Admin User"
	AdminEmail    = "admin@aura.com"
	AdminPassword = "password123"
)

type userStore interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type productStore interface {
	List(ctx context.Context, keyword string) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
}

type Params struct {
	Users    userStore
	Products productStore
	Password config.PasswordConfig
	Logger   *logger.Logger
}

// Result reports what a run actually inserted.
type Result struct {
	AdminCreated    bool
	ProductsCreated int
}

// Run creates the admin account and the sample catalogue. It is safe to run
// repeatedly: an existing admin is kept and the catalogue is only inserted
// into an empty store.
func Run(ctx context.Context, p Params) (Result, error) {
	var res Result
	if p.Users == nil || p.Products == nil {
		return res, errors.New("user and product stores required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	hash, err := security.HashPassword(AdminPassword, p.Password)
	if err != nil {
		return res, fmt.Errorf("hash admin password: %w", err)
	}
	_, err = p.Users.Create(ctx, users.CreateUserDTO{
		Name:         AdminName,
		Email:        AdminEmail,
		PasswordHash: hash,
		IsAdmin:      true,
	})
	switch {
	case err == nil:
		res.AdminCreated = true
		logg.Info(logg.WithField(ctx, "email", AdminEmail), "seeded admin user")
	case errors.Is(err, users.ErrDuplicateEmail):
		logg.Info(logg.WithField(ctx, "email", AdminEmail), "admin user already present")
	default:
		return res, fmt.Errorf("create admin: %w", err)
	}

	existing, err := p.Products.List(ctx, "")
	if err != nil {
		return res, fmt.Errorf("list products: %w", err)
	}
	if len(existing) > 0 {
		logg.Info(logg.WithField(ctx, "count", len(existing)), "catalogue already seeded")
		return res, nil
	}

	for _, item := range Catalogue() {
		product := item
		if _, err := p.Products.Create(ctx, &product); err != nil {
			return res, fmt.Errorf("create product %q: %w", product.Name, err)
		}
		res.ProductsCreated++
	}
	logg.Info(logg.WithField(ctx, "count", res.ProductsCreated), "seeded catalogue")
	return res, nil
}

// Catalogue returns the sample Aura Apparel products.
func Catalogue() []models.Product {
	p := func(name, slug, bg, fg, category, description string, price int64, stock int) models.Product {
		return models.Product{
			Name:         name,
			Image:        fmt.Sprintf("https://placehold.co/600x600/%s/%s?text=%s", bg, fg, slug),
			Brand:        "Aura Apparel",
			Category:     category,
			Description:  description,
			Price:        decimal.NewFromInt(price),
			CountInStock: stock,
			Rating:       decimal.Zero,
		}
	}
	return []models.Product{
		p(`Aura "Void" Hoodie`, "Void+Hoodie", "1a1a1a", "ffffff", "Hoodies",
			`A heavyweight, oversized hoodie in jet black. Made from 100% premium cotton with a minimalist logo embroidery. The "Void" is your new uniform.`,
			120, 50),
		p(`Aura "Essential" T-Shirt`, "Essential+T-Shirt", "1a1a1a", "ffffff", "T-Shirts",
			`The perfect oversized t-shirt in a washed black finish. Features a relaxed fit, drop shoulders, and a durable rib-knit collar.`,
			45, 100),
		p(`Aura "Orbit" Crewneck`, "Orbit+Crewneck", "f0f0f0", "333333", "Sweatshirts",
			`A clean, off-white crewneck sweatshirt. Its boxy fit and subtle "Aura" text on the cuff make it a versatile piece for any look.`,
			85, 30),
		p(`Aura "Foundation" Cargo`, "Foundation+Cargo", "556B2F", "ffffff", "Pants",
			`A modern take on the classic cargo pant. Tapered fit, built from durable ripstop fabric, and features six functional pockets.`,
			110, 25),
		p(`Aura "Stratus" Sneaker`, "Stratus+Sneaker", "f0f0f0", "333333", "Footwear",
			`A minimalist "cloud" sneaker with a chunky, yet lightweight sole. Monochrome white-on-white with premium leather and suede panels.`,
			160, 15),
		p(`Aura "Signal" Beanie`, "Signal+Beanie", "FF4500", "ffffff", "Accessories",
			`A classic fisherman beanie in a high-visibility "Signal" orange. The perfect accent piece to an all-black outfit. 100% ribbed cotton.`,
			35, 75),
	}
}
