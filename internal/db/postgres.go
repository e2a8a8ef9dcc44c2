package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gorm.io/gorm"

	"infinite-experiment/roster/internal/config"
	"infinite-experiment/roster/internal/constants"
)

// NewSqlx wraps the GORM connection pool for the hand-written queries in
// the key repository, so both share one pool.
func NewSqlx(gdb *gorm.DB, driver string) (*sqlx.DB, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	name := "postgres"
	if driver == config.DriverSQLite {
		name = "sqlite3"
	}
	return sqlx.NewDb(sqlDB, name), nil
}

// EnsureKeyTable creates the api_keys table if missing.
func EnsureKeyTable(db *sqlx.DB) error {
	if _, err := db.Exec(constants.CreateApiKeysTable); err != nil {
		return fmt.Errorf("failed to create api_keys table: %w", err)
	}
	return nil
}
