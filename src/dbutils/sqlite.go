package dbutils

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jiaming2012/spread-trading/src/chainstore/records"
	"github.com/jiaming2012/spread-trading/src/logger"
)

// InitSqlite opens (creating if needed) the cache index database and
// migrates its tables. Each backtest process owns its own database file;
// the cache layer is not designed for concurrent writers.
func InitSqlite(dbPath string) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("InitSqlite: failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.NewLogrusLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("InitSqlite: failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&records.CacheMetadata{}); err != nil {
		return nil, fmt.Errorf("InitSqlite: failed to migrate database: %w", err)
	}

	if err := db.AutoMigrate(&records.DataQuality{}); err != nil {
		return nil, fmt.Errorf("InitSqlite: failed to migrate database: %w", err)
	}

	return db, nil
}
