package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
)

// SupplierFilter narrows List. Name matches case-insensitively by substring.
type SupplierFilter struct {
	Name string
}

// SupplierRepository handles database operations for Supplier.
type SupplierRepository struct {
	db *gorm.DB
}

func (r *SupplierRepository) List(ctx context.Context, userID uint, f SupplierFilter, p orm.Page) ([]models.Supplier, orm.Pagination, error) {
	out := []models.Supplier{}
	q := r.db.WithContext(ctx).Model(&models.Supplier{}).
		Scopes(orm.OwnedBy(userID), orm.Contains("name", f.Name)).
		Order("id")
	meta, err := orm.Paginate(q, p, &out)
	return out, meta, err
}

func (r *SupplierRepository) Find(ctx context.Context, userID, id uint) (*models.Supplier, error) {
	var s models.Supplier
	if err := r.db.WithContext(ctx).Scopes(orm.OwnedBy(userID)).First(&s, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *SupplierRepository) Create(ctx context.Context, s *models.Supplier) error {
	err := r.db.WithContext(ctx).Create(s).Error
	if database.IsUniqueViolation(err, models.SupplierOwnerNameIndex) {
		return ErrDuplicate
	}
	return err
}

func (r *SupplierRepository) Save(ctx context.Context, s *models.Supplier) error {
	err := r.db.WithContext(ctx).Save(s).Error
	if database.IsUniqueViolation(err, models.SupplierOwnerNameIndex) {
		return ErrDuplicate
	}
	return err
}

// Delete removes the supplier together with its products and their
// inventory rows.
func (r *SupplierRepository) Delete(ctx context.Context, userID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s models.Supplier
		if err := tx.Scopes(orm.OwnedBy(userID)).First(&s, id).Error; err != nil {
			return notFound(err)
		}
		products := tx.Model(&models.Product{}).Select("id").Where("supplier_id = ?", s.ID)
		if err := tx.Where("product_id IN (?)", products).Delete(&models.Inventory{}).Error; err != nil {
			return fmt.Errorf("delete inventory: %w", err)
		}
		if err := tx.Where("supplier_id = ?", s.ID).Delete(&models.Product{}).Error; err != nil {
			return fmt.Errorf("delete products: %w", err)
		}
		return tx.Delete(&s).Error
	})
}

// FindOrCreate returns the owner's supplier called name, inserting it when
// absent. An insert that loses a race on the (user_id, name) index re-reads
// the winner's row. The insert runs in its own (nested) transaction so a
// unique violation leaves an enclosing transaction usable.
func (r *SupplierRepository) FindOrCreate(ctx context.Context, userID uint, name string) (*models.Supplier, error) {
	db := r.db.WithContext(ctx)

	if s, err := r.findByName(db, userID, name); err != nil || s != nil {
		return s, err
	}

	s := models.Supplier{UserID: userID, Name: name}
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&s).Error
	})
	if err == nil {
		return &s, nil
	}
	if !database.IsUniqueViolation(err, models.SupplierOwnerNameIndex) {
		return nil, err
	}

	existing, err := r.findByName(db, userID, name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("supplier %q vanished after duplicate insert", name)
	}
	return existing, nil
}

func (r *SupplierRepository) findByName(db *gorm.DB, userID uint, name string) (*models.Supplier, error) {
	var s models.Supplier
	res := db.Where("user_id = ? AND name = ?", userID, name).Limit(1).Find(&s)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &s, nil
}

// Count returns how many suppliers userID owns, optionally filtered by name.
func (r *SupplierRepository) Count(ctx context.Context, userID uint, name string) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.Supplier{}).Scopes(orm.OwnedBy(userID))
	if name != "" {
		q = q.Where("name = ?", name)
	}
	err := q.Count(&n).Error
	return n, err
}

func ownsSupplier(db *gorm.DB, userID, supplierID uint) error {
	var n int64
	if err := db.Model(&models.Supplier{}).Where("id = ? AND user_id = ?", supplierID, userID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrForeignOwner
	}
	return nil
}
