// Package dbtest opens throwaway, fully migrated databases for tests.
package dbtest

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	_ "github.com/shashiranjanraj/stockroom/database/migrations"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
)

var seq atomic.Int64

// Open returns an in-memory sqlite database with every registered
// migration applied. Each call gets its own database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	db, err := database.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("dbtest: open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if err := migration.New(db).WithOutput(io.Discard).Run(); err != nil {
		t.Fatalf("dbtest: migrate: %v", err)
	}
	return db
}
