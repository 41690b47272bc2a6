package initialize

import (
	"portal/config"
	"portal/internal/database"
	"portal/internal/logger"
	. "portal/internal/models"

	"gorm.io/gorm"
)

// InitializeTables checks that the schema is complete and queryable.
func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Verifying schema", "dbPath", config.DatabaseDbPath)

	pending, err := database.PendingMigrations(db)
	if err != nil {
		return log.Err("failed to plan migrations", err)
	}
	if len(pending) > 0 {
		return log.Error("schema has pending migrations", "pending", pending)
	}

	if !db.Migrator().HasTable(&Customer{}) {
		return log.Error("customers table is missing")
	}

	var count int64
	if err := db.Model(&Customer{}).Count(&count).Error; err != nil {
		return log.Err("failed to query customers", err)
	}

	log.Info("Table initialization complete", "customers", count)
	return nil
}
