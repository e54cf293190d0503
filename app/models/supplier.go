package models

import "time"

// SupplierOwnerNameIndex is the unique (user_id, name) index that backs
// supplier find-or-create.
const SupplierOwnerNameIndex = "idx_supplier_owner_name"

// Supplier is unique per owner by name; two users may share a name.
type Supplier struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_supplier_owner_name,priority:1" json:"-"`
	Name        string    `gorm:"size:255;not null;uniqueIndex:idx_supplier_owner_name,priority:2" json:"name"`
	ContactInfo string    `gorm:"type:text" json:"contact_info"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
