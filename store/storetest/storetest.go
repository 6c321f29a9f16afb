// Package storetest provides isolated in-memory databases for tests.
package storetest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	"github.com/judyrop/restaurant-backend/logger"
	"github.com/judyrop/restaurant-backend/models"
	"github.com/judyrop/restaurant-backend/store"
)

var seq atomic.Int64

// New returns a fresh migrated in-memory database private to the test.
func New(t testing.TB, migrate ...any) *gorm.DB {
	t.Helper()
	if len(migrate) == 0 {
		migrate = models.Restaurant()
	}
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	db, err := store.OpenSQLite(dsn, logger.Discard())
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	if err := store.Migrate(db, migrate...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(db) })
	return db
}
