// Package repositories owns persistence for users and their inventory
// data. Every Supplier, Product and Inventory query is scoped to the owning
// user; a row that belongs to someone else is reported as ErrNotFound.
package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a row does not exist for this owner.
	ErrNotFound = errors.New("record not found")

	// ErrForeignOwner is returned when a write references a supplier or
	// product the caller does not own.
	ErrForeignOwner = errors.New("referenced record does not belong to this user")

	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("record already exists")
)

// Store groups the repositories over one database handle.
type Store struct {
	db *gorm.DB

	Users     *UserRepository
	Suppliers *SupplierRepository
	Products  *ProductRepository
	Inventory *InventoryRepository
	Reports   *ReportRepository
}

// NewStore binds every repository to db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Users:     &UserRepository{db: db},
		Suppliers: &SupplierRepository{db: db},
		Products:  &ProductRepository{db: db},
		Inventory: &InventoryRepository{db: db},
		Reports:   &ReportRepository{db: db},
	}
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB { return s.db }

// Transaction runs fn with a Store bound to a single transaction. Inside an
// existing transaction gorm uses a savepoint.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
