package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
)

// InventoryFilter narrows List. Quantity matches exactly when set.
type InventoryFilter struct {
	Quantity *int
}

// InventoryRepository handles database operations for Inventory.
type InventoryRepository struct {
	db *gorm.DB
}

func (r *InventoryRepository) List(ctx context.Context, userID uint, f InventoryFilter, p orm.Page) ([]models.Inventory, orm.Pagination, error) {
	out := []models.Inventory{}
	q := r.db.WithContext(ctx).Model(&models.Inventory{}).
		Scopes(orm.OwnedBy(userID), orm.Equals("quantity", f.Quantity)).
		Preload("Product").
		Order("id")
	meta, err := orm.Paginate(q, p, &out)
	return out, meta, err
}

func (r *InventoryRepository) Find(ctx context.Context, userID, id uint) (*models.Inventory, error) {
	var inv models.Inventory
	if err := r.db.WithContext(ctx).Scopes(orm.OwnedBy(userID)).Preload("Product").First(&inv, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

// Create inserts inv after checking its product belongs to inv.UserID.
func (r *InventoryRepository) Create(ctx context.Context, inv *models.Inventory) error {
	db := r.db.WithContext(ctx)
	if err := ownsProduct(db, inv.UserID, inv.ProductID); err != nil {
		return err
	}
	return db.Omit("Product").Create(inv).Error
}

// Save updates inv after checking its product belongs to inv.UserID.
func (r *InventoryRepository) Save(ctx context.Context, inv *models.Inventory) error {
	db := r.db.WithContext(ctx)
	if err := ownsProduct(db, inv.UserID, inv.ProductID); err != nil {
		return err
	}
	inv.Product = nil
	return db.Save(inv).Error
}

func (r *InventoryRepository) Delete(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Scopes(orm.OwnedBy(userID)).Delete(&models.Inventory{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
