package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oxhq/driftsim/models"
)

// Connect opens (or creates) the run database and applies migrations.
func Connect(path string, debug bool) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	config := &gorm.Config{}
	if debug {
		config.Logger = logger.Default.LogMode(logger.Info)
	} else {
		config.Logger = logger.Default.LogMode(logger.Silent)
	}

	gdb, err := gorm.Open(sqlite.Open(path), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return gdb, nil
}

// Migrate runs database migrations.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.Run{},
		&models.BlockRecord{},
		&models.Substitution{},
	)
}
