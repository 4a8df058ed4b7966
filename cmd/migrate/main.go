package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"sheetdiff/adapters/postgres"
	"sheetdiff/internal/migration"
)

// migrate creates or upgrades the run history schema. The driver and DSN come
// from the arguments or from HISTORY_DRIVER and HISTORY_DSN.
func main() {
	_ = godotenv.Load()

	driver := os.Getenv("HISTORY_DRIVER")
	dsn := os.Getenv("HISTORY_DSN")
	switch len(os.Args) {
	case 1:
	case 3:
		driver, dsn = os.Args[1], os.Args[2]
	default:
		log.Fatal("Usage: migrate [<postgres|sqlite3> <dsn>]")
	}
	if driver == "" || dsn == "" {
		log.Fatal("HISTORY_DRIVER and HISTORY_DSN must be set, or passed as arguments")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	log.Printf("Migrating %s run history to schema %s", driver, migration.NewRunner().Version())
	db, err := postgres.Open(ctx, driver, dsn)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	defer db.Close()

	var runs int
	if err := db.GetContext(ctx, &runs, "SELECT COUNT(*) FROM comparison_runs"); err != nil {
		log.Fatalf("Failed to inspect comparison_runs: %v", err)
	}
	log.Printf("Schema up to date; %d runs recorded", runs)
}
