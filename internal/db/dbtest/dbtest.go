// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"infinite-experiment/roster/internal/config"
	"infinite-experiment/roster/internal/db"
)

// Open returns a migrated in-memory sqlite database private to t.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	// shared cache keeps every pooled connection on the same database
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// OpenSqlx returns the same pool wrapped for sqlx with api_keys created.
func OpenSqlx(t *testing.T, gdb *gorm.DB) *sqlx.DB {
	t.Helper()

	sdb, err := db.NewSqlx(gdb, config.DriverSQLite)
	if err != nil {
		t.Fatalf("Failed to wrap database: %v", err)
	}
	if err := db.EnsureKeyTable(sdb); err != nil {
		t.Fatalf("Failed to create api_keys: %v", err)
	}
	return sdb
}
