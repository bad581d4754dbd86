package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/busfinder/busfinder/internal/pkg/config"
)

var files = []string{
	"migrations/001_catalog.sql",
	"migrations/002_user_data.sql",
}

// Reverse order of files.
var dropStatements = []string{
	"DROP TABLE IF EXISTS recent_searches, favorite_routes, user_profiles",
	"DROP TABLE IF EXISTS lines, stops",
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("busfinder-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Catalog.Backend != config.BackendPostgres {
		log.Fatalf("migrate only applies to the postgres backend (catalog.backend=%s)", cfg.Catalog.Backend)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, pool)
	case "down":
		for _, stmt := range dropStatements {
			if _, err := pool.Exec(ctx, stmt); err != nil {
				log.Fatalf("exec %q: %v", stmt, err)
			}
			fmt.Printf("OK  %s\n", stmt)
		}
		log.Println("all tables dropped")
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) {
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		_, err = pool.Exec(ctx, string(data))
		if err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}
