package database

import (
	"fmt"

	"github.com/mcmanyika/cashround-sub000/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens (or lazily creates) the single-file mirror database and
// ensures the schema exists. The returned handle is injected into every
// service; callers own its lifecycle. Tests pass a path under t.TempDir().
func Connect(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror database %q: %w", path, err)
	}

	// Idempotent schema creation; there is no migrations mechanism beyond this.
	if err := db.AutoMigrate(
		&models.User{},
		&models.Pool{},
		&models.PoolMember{},
		&models.PoolContribution{},
		&models.PoolPayout{},
		&models.Referral{},
		&models.UserActivity{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate mirror schema: %w", err)
	}

	return db, nil
}

// Close releases the underlying sql.DB. Optional; the process exit path is
// the usual teardown.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
