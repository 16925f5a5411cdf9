// Package database persists per-item generation metrics to a local SQLite
// database, read back by the report web view.
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the SQLite metrics database at path, creating it and
// migrating the schema as needed.
func Open(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics database: %w", err)
	}

	if err := db.AutoMigrate(&PreviewMetric{}); err != nil {
		return nil, fmt.Errorf("failed to migrate metrics schema: %w", err)
	}
	return db, nil
}
