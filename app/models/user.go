package models

import "gorm.io/gorm"

// Roles a User may hold. Admins can inspect and retry failed jobs.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User owns every Supplier, Product and Inventory row it creates.
type User struct {
	gorm.Model
	Name     string `gorm:"size:255;not null" json:"name"`
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"`
	Role     string `gorm:"size:50;not null;default:user" json:"role"`
}

// IsAdmin reports whether u may use the operator endpoints.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
