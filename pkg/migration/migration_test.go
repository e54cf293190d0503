package migration_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
)

type gadget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

type createGadgets struct{}

func (createGadgets) Up(db *gorm.DB) error   { return db.AutoMigrate(&gadget{}) }
func (createGadgets) Down(db *gorm.DB) error { return db.Migrator().DropTable(&gadget{}) }

func init() {
	migration.Register("20260301000000_create_gadgets_table", createGadgets{})
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestRunner_RunThenRollback(t *testing.T) {
	db := openDB(t)
	runner := migration.New(db).WithOutput(io.Discard)

	if err := runner.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !db.Migrator().HasTable(&gadget{}) {
		t.Fatal("expected gadgets table after run")
	}

	pending, err := runner.Pending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected nothing pending, got %v", pending)
	}

	// A second run is a no-op.
	if err := runner.Run(); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if err := runner.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if db.Migrator().HasTable(&gadget{}) {
		t.Error("expected gadgets table to be dropped")
	}
}

func TestRunner_Status(t *testing.T) {
	db := openDB(t)
	var out bytes.Buffer
	runner := migration.New(db).WithOutput(&out)

	if err := runner.Status(); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out.String(), "20260301000000_create_gadgets_table") || !strings.Contains(out.String(), "Pending") {
		t.Errorf("unexpected status output:\n%s", out.String())
	}
}
