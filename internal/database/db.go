package database

import (
	"fmt"

	"kitchenboard/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"              // SQLite driver
	log "github.com/sirupsen/logrus"
)

// MemoryDSN keeps the journal inside the process; it is gone at shutdown
const MemoryDSN = ":memory:"

// Open connects to the journal database and migrates its schema
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if dsn == "" && driver == "sqlite3" {
		dsn = MemoryDSN
	}

	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite3" {
		// an in-memory sqlite database lives and dies with its connection
		db.DB().SetMaxOpenConns(1)
		db.DB().SetMaxIdleConns(1)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	log.WithField("driver", driver).Info("Journal database ready")
	return db, nil
}

// Migrate creates or updates the journal tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.StageTransition{}).Error; err != nil {
		return fmt.Errorf("failed to migrate journal: %w", err)
	}
	return nil
}
