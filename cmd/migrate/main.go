package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/keepwise/analytics-backend/internal/adapter/repository/postgres"
	"github.com/keepwise/analytics-backend/internal/config"
)

func main() {
	action := flag.String("action", "up", "migration action: up, down, version")
	path := flag.String("path", "migrations/postgres", "path to migration files")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	databaseURL := cfg.Postgres.URL()

	switch *action {
	case "up":
		if err := postgres.RunMigrations(databaseURL, *path); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("migrations applied")
	case "down":
		if err := postgres.RollbackMigrations(databaseURL, *path); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		fmt.Println("last migration rolled back")
	case "version":
		version, dirty, err := postgres.MigrationVersion(databaseURL, *path)
		if err != nil {
			log.Fatalf("Version check failed: %v", err)
		}
		fmt.Printf("version=%d dirty=%v\n", version, dirty)
	default:
		log.Fatalf("Unknown action: %s (expected up, down or version)", *action)
	}
}
