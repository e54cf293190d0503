package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
)

func init() {
	migration.Register("20260101000000_create_users_table", &CreateUsersTable{})
	migration.Register("20260101000001_create_suppliers_table", &CreateSuppliersTable{})
	migration.Register("20260101000002_create_products_table", &CreateProductsTable{})
	migration.Register("20260101000003_create_inventories_table", &CreateInventoriesTable{})
	migration.Register("20260101000004_create_failed_jobs_table", &CreateFailedJobsTable{})
}

// -------- 0000: users --------

type CreateUsersTable struct{}

func (m *CreateUsersTable) Up(db *gorm.DB) error   { return db.AutoMigrate(&models.User{}) }
func (m *CreateUsersTable) Down(db *gorm.DB) error { return db.Migrator().DropTable(&models.User{}) }

// -------- 0001: suppliers --------

type CreateSuppliersTable struct{}

func (m *CreateSuppliersTable) Up(db *gorm.DB) error { return db.AutoMigrate(&models.Supplier{}) }
func (m *CreateSuppliersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Supplier{})
}

// -------- 0002: products --------

type CreateProductsTable struct{}

func (m *CreateProductsTable) Up(db *gorm.DB) error { return db.AutoMigrate(&models.Product{}) }
func (m *CreateProductsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Product{})
}

// -------- 0003: inventories --------

type CreateInventoriesTable struct{}

func (m *CreateInventoriesTable) Up(db *gorm.DB) error { return db.AutoMigrate(&models.Inventory{}) }
func (m *CreateInventoriesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Inventory{})
}

// -------- 0004: failed_jobs --------

type CreateFailedJobsTable struct{}

func (m *CreateFailedJobsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&queue.FailedJobRecord{})
}

func (m *CreateFailedJobsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&queue.FailedJobRecord{})
}
