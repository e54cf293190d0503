package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
)

// ReportRepository runs the read-only aggregate queries behind the
// inventory report.
type ReportRepository struct {
	db *gorm.DB
}

// LowStock returns userID's inventory rows with quantity below threshold,
// lowest first, each with its product loaded.
func (r *ReportRepository) LowStock(ctx context.Context, userID uint, threshold int) ([]models.Inventory, error) {
	out := []models.Inventory{}
	err := r.db.WithContext(ctx).
		Scopes(orm.OwnedBy(userID)).
		Where("quantity < ?", threshold).
		Preload("Product").
		Order("quantity, id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	return out, nil
}

// SupplierPerformance lists userID's suppliers with how many products each
// supplies. Suppliers without products are included with a zero count.
func (r *ReportRepository) SupplierPerformance(ctx context.Context, userID uint) ([]models.SupplierPerformance, error) {
	out := []models.SupplierPerformance{}
	err := r.db.WithContext(ctx).
		Model(&models.Supplier{}).
		Select("suppliers.id AS supplier_id, suppliers.name, suppliers.contact_info, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.supplier_id = suppliers.id AND products.user_id = suppliers.user_id").
		Where("suppliers.user_id = ?", userID).
		Group("suppliers.id, suppliers.name, suppliers.contact_info").
		Order("suppliers.name").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("supplier performance: %w", err)
	}
	return out, nil
}
