package database

import (
	"fmt"
	"log"

	"github.com/anjiri1684/mentor_marketplace/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("✅ Database connected successfully")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.AvailabilitySlot{},
		&models.Session{},
		&models.Payment{},
		&models.ReconciliationRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// One active (non-voided) payment per session.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_payments_active_session
		ON payments (session_id) WHERE status <> 'voided'`).Error; err != nil {
		return fmt.Errorf("failed to create payments index: %w", err)
	}

	log.Println("✅ Database migration successful")
	return nil
}
