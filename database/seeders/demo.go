package seeders

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
)

// Demo account addresses. Passwords come from SEED_PASSWORD.
const (
	DemoEmail  = "demo@stockroom.local"
	AdminEmail = "admin@stockroom.local"
)

func init() {
	Register("users", SeedUsers)
	Register("demo_inventory", SeedDemoInventory)
}

// SeedUsers creates the demo user and an admin if they do not exist.
func SeedUsers(ctx context.Context, db *gorm.DB) error {
	store := repositories.NewStore(db)
	for _, u := range []models.User{
		{Name: "Demo User", Email: DemoEmail, Role: models.RoleUser},
		{Name: "Administrator", Email: AdminEmail, Role: models.RoleAdmin},
	} {
		_, err := store.Users.FindByEmail(ctx, u.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		hash, err := auth.HashPassword(config.Get("SEED_PASSWORD", "password123"))
		if err != nil {
			return err
		}
		u.Password = hash
		if err := store.Users.Create(ctx, &u); err != nil {
			return err
		}
	}
	return nil
}

type demoProduct struct {
	name        string
	description string
	price       string
	supplier    string
	quantity    int
}

var demoProducts = []demoProduct{
	{"Widget", "Standard widget", "9.99", "Acme", 120},
	{"Gadget", "Pocket gadget", "24.50", "Acme", 4},
	{"Sprocket", "12-tooth sprocket", "3.25", "Globex", 0},
	{"Flange", "Steel flange", "15.00", "Globex", 35},
	{"Gizmo", "Deluxe gizmo", "99.00", "Initech", 7},
}

// SeedDemoInventory gives the demo user a small catalogue with a few
// low-stock items. Products the user already has by name are skipped.
func SeedDemoInventory(ctx context.Context, db *gorm.DB) error {
	store := repositories.NewStore(db)
	user, err := store.Users.FindByEmail(ctx, DemoEmail)
	if err != nil {
		return err
	}

	return store.Transaction(ctx, func(tx *repositories.Store) error {
		for _, p := range demoProducts {
			n, err := tx.Products.CountByName(ctx, user.ID, p.name)
			if err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			supplier, err := tx.Suppliers.FindOrCreate(ctx, user.ID, p.supplier)
			if err != nil {
				return err
			}
			product := models.Product{
				UserID:      user.ID,
				SupplierID:  supplier.ID,
				Name:        p.name,
				Description: p.description,
				Price:       decimal.RequireFromString(p.price),
			}
			if err := tx.Products.Create(ctx, &product); err != nil {
				return err
			}
			inv := models.Inventory{UserID: user.ID, ProductID: product.ID, Quantity: p.quantity}
			if err := tx.Inventory.Create(ctx, &inv); err != nil {
				return err
			}
		}
		return nil
	})
}
