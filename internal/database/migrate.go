package database

import (
	"embed"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationDialect = "sqlite3"

func migrationSource() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
}

// Migrate applies every pending up migration.
func Migrate(db *gorm.DB) error {
	_, err := MigrateDirection(db, migrate.Up, 0)
	return err
}

// MigrateDirection runs at most limit migrations in dir; 0 means all.
func MigrateDirection(db *gorm.DB, dir migrate.MigrationDirection, limit int) (int, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get sql database: %w", err)
	}

	applied, err := migrate.ExecMax(sqlDB, migrationDialect, migrationSource(), dir, limit)
	if err != nil {
		return applied, fmt.Errorf("failed to run migrations: %w", err)
	}
	return applied, nil
}

// PendingMigrations lists the ids not yet applied.
func PendingMigrations(db *gorm.DB) ([]string, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql database: %w", err)
	}

	planned, _, err := migrate.PlanMigration(sqlDB, migrationDialect, migrationSource(), migrate.Up, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to plan migrations: %w", err)
	}

	ids := make([]string, 0, len(planned))
	for _, m := range planned {
		ids = append(ids, m.Id)
	}
	return ids, nil
}
