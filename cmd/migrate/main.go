package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/samirrijal/safezone/internal/adapters/filestore"
	"github.com/samirrijal/safezone/internal/adapters/postgres"
	"github.com/samirrijal/safezone/internal/pkg/config"
)

var upFiles = []string{
	"migrations/001_risk_zones.sql",
}

var downFiles = []string{
	"migrations/001_risk_zones.down.sql",
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down|seed [zones.json]>")
	}

	_ = godotenv.Load(".env")

	cfg, err := config.Load("safezone-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, db, upFiles)
	case "down":
		runMigrations(ctx, db, downFiles)
	case "seed":
		path := cfg.Store.ZonesFile
		if len(os.Args) > 2 {
			path = os.Args[2]
		}
		seedZones(ctx, db, path)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runMigrations(ctx context.Context, db *postgres.DB, files []string) {
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		_, err = db.Pool.Exec(ctx, string(data))
		if err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}

// seedZones upserts the zones in a JSON file. Records are stored as they are;
// malformed ones are skipped at check time like any other bad row.
func seedZones(ctx context.Context, db *postgres.DB, path string) {
	zones, err := filestore.NewZoneFile(path).FetchZones(ctx)
	if err != nil {
		log.Fatalf("read zones: %v", err)
	}

	if err := postgres.NewZoneRepo(db).UpsertBatch(ctx, zones); err != nil {
		log.Fatalf("seed zones: %v", err)
	}

	log.Printf("seeded %d zones from %s", len(zones), path)
}
