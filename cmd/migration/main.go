package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"portal/cmd/migration/initialize"
	"portal/cmd/migration/seed"
	"portal/config"
	"portal/internal/database"
	"portal/internal/logger"

	migrate "github.com/rubenv/sql-migrate"
)

func main() {
	log := logger.New("migration")

	upCmd := flag.NewFlagSet("up", flag.ExitOnError)
	downCmd := flag.NewFlagSet("down", flag.ExitOnError)
	downLimit := downCmd.Int("limit", 1, "Number of migrations to roll back")
	statusCmd := flag.NewFlagSet("status", flag.ExitOnError)
	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	seedCount := seedCmd.Int("count", 25, "Number of mock customers to create")
	seedForce := seedCmd.Bool("force", false, "Seed even when customers exist or in production")
	initCmd := flag.NewFlagSet("initialize", flag.ExitOnError)

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	config, err := config.InitConfig()
	if err != nil {
		log.Er("failed to load config", err)
		os.Exit(1)
	}

	// Opening the database applies pending up migrations.
	db, err := database.New(config)
	if err != nil {
		log.Er("failed to open database", err)
		os.Exit(1)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		_ = upCmd.Parse(os.Args[2:])
		applied, err := database.MigrateDirection(db.SQL, migrate.Up, 0)
		if err != nil {
			exit(log, "failed to migrate up", err)
		}
		fmt.Printf("Schema up to date (%d newly applied)\n", applied)

	case "down":
		_ = downCmd.Parse(os.Args[2:])
		applied, err := database.MigrateDirection(db.SQL, migrate.Down, *downLimit)
		if err != nil {
			exit(log, "failed to migrate down", err)
		}
		if err := db.FlushAllCaches(context.Background()); err != nil {
			exit(log, "failed to flush caches", err)
		}
		fmt.Printf("Rolled back %d migration(s)\n", applied)

	case "status":
		_ = statusCmd.Parse(os.Args[2:])
		pending, err := database.PendingMigrations(db.SQL)
		if err != nil {
			exit(log, "failed to read migration status", err)
		}
		if len(pending) == 0 {
			fmt.Println("No pending migrations")
			return
		}
		fmt.Println("Pending migrations:")
		for _, id := range pending {
			fmt.Println("  " + id)
		}

	case "seed":
		_ = seedCmd.Parse(os.Args[2:])
		created, err := seed.Seed(db.SQL, config, log, *seedCount, *seedForce)
		if err != nil {
			exit(log, "failed to seed", err)
		}
		if created > 0 {
			if err := db.FlushAllCaches(context.Background()); err != nil {
				exit(log, "failed to flush caches", err)
			}
		}
		fmt.Printf("Seeded %d customer(s)\n", created)

	case "initialize":
		_ = initCmd.Parse(os.Args[2:])
		if err := initialize.InitializeTables(db.SQL, config, log); err != nil {
			exit(log, "failed to initialize tables", err)
		}
		fmt.Println("Tables initialized")

	default:
		help()
		os.Exit(1)
	}
}

func exit(log logger.Logger, msg string, err error) {
	log.Er(msg, err)
	os.Exit(1)
}

func help() {
	fmt.Println("Usage: migration <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  up                    apply all pending migrations")
	fmt.Println("  down  -limit N        roll back the last N migrations")
	fmt.Println("  status                list pending migrations")
	fmt.Println("  seed  -count N -force insert mock customers")
	fmt.Println("  initialize            verify the schema")
}
