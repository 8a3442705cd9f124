package Models

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to the configured database without migrating it.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	return db, nil
}

// Migrate creates or updates every table, parents first.
func Migrate(db *gorm.DB) error {
	// 1. Tables with no foreign keys
	if err := db.AutoMigrate(
		&User{},
		&Question{},
		&ProductionLine{},
	); err != nil {
		return fmt.Errorf("migrating base tables: %w", err)
	}

	// 2. Tables depending on users or production lines
	if err := db.AutoMigrate(
		&Profile{},
		&LoginSession{},
		&Operation{},
	); err != nil {
		return fmt.Errorf("migrating dependent tables: %w", err)
	}

	// 3. Sessions and their answers
	if err := db.AutoMigrate(
		&FormSession{},
		&Answer{},
	); err != nil {
		return fmt.Errorf("migrating checklist tables: %w", err)
	}
	return nil
}

// Connect opens, migrates and optionally seeds the database, and stores the
// handle in DB.
func Connect(driver, dsn string, seed bool, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	if seed {
		created, err := Seed(db)
		if err != nil {
			return nil, fmt.Errorf("seeding: %w", err)
		}
		if created > 0 {
			log.Info("seeded reference data", zap.Int("rows", created))
		}
	}
	DB = db
	log.Info("database ready", zap.String("driver", driver))
	return db, nil
}
