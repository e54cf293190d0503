package models

import "time"

// Inventory tracks the on-hand quantity of one Product.
type Inventory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int       `gorm:"not null;default:0;index" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SupplierPerformance is one row of the report's supplier table.
type SupplierPerformance struct {
	SupplierID   uint   `json:"supplier_id"`
	Name         string `json:"name"`
	ContactInfo  string `json:"contact_info"`
	ProductCount int64  `json:"product_count"`
}
