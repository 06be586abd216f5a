package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"securereport/config"
	"securereport/core/store"
	"securereport/core/utils"

	"github.com/goccy/go-json"
)

func main() {
	statusOnly := flag.Bool("status", false, "print migration status as JSON and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	logger := utils.NewLoggerWithConfig(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalf("db: %v", err)
	}
	defer db.Close()

	if *statusOnly {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		status, err := store.GetMigrationStatus(ctx, db)
		if err != nil {
			logger.Fatalf("migration status: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(status)
		return
	}
	if err := store.ApplyMigrations(context.Background(), db, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}
	logger.Printf("migrations applied")
}
