package repositories

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
)

// ProductFilter narrows List. Price matches exactly when set.
type ProductFilter struct {
	Name  string
	Price *decimal.Decimal
}

// ProductRepository handles database operations for Product.
type ProductRepository struct {
	db *gorm.DB
}

func (r *ProductRepository) List(ctx context.Context, userID uint, f ProductFilter, p orm.Page) ([]models.Product, orm.Pagination, error) {
	out := []models.Product{}
	q := r.db.WithContext(ctx).Model(&models.Product{}).
		Scopes(orm.OwnedBy(userID), orm.Contains("name", f.Name), orm.Equals("price", f.Price)).
		Preload("Supplier").
		Order("id")
	meta, err := orm.Paginate(q, p, &out)
	return out, meta, err
}

func (r *ProductRepository) Find(ctx context.Context, userID, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).Scopes(orm.OwnedBy(userID)).Preload("Supplier").First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// Create inserts p after checking its supplier belongs to p.UserID.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	db := r.db.WithContext(ctx)
	if err := ownsSupplier(db, p.UserID, p.SupplierID); err != nil {
		return err
	}
	return db.Omit("Supplier").Create(p).Error
}

// Save updates p after checking its supplier belongs to p.UserID.
func (r *ProductRepository) Save(ctx context.Context, p *models.Product) error {
	db := r.db.WithContext(ctx)
	if err := ownsSupplier(db, p.UserID, p.SupplierID); err != nil {
		return err
	}
	p.Supplier = nil
	return db.Save(p).Error
}

// Delete removes the product and its inventory rows.
func (r *ProductRepository) Delete(ctx context.Context, userID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Scopes(orm.OwnedBy(userID)).First(&p, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("product_id = ?", p.ID).Delete(&models.Inventory{}).Error; err != nil {
			return fmt.Errorf("delete inventory: %w", err)
		}
		return tx.Delete(&p).Error
	})
}

// CountByName returns how many products called name userID owns.
func (r *ProductRepository) CountByName(ctx context.Context, userID uint, name string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Scopes(orm.OwnedBy(userID)).
		Where("name = ?", name).
		Count(&n).Error
	return n, err
}

func ownsProduct(db *gorm.DB, userID, productID uint) error {
	var n int64
	if err := db.Model(&models.Product{}).Where("id = ? AND user_id = ?", productID, userID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrForeignOwner
	}
	return nil
}
