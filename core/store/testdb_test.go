package store

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"securereport/config"
	"securereport/core/utils"
)

func mustTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.AppConfig{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(dir, "tmp.db") + "?_pragma=foreign_keys(1)&_time_format=sqlite",
	}
	logger := utils.NewLoggerWithConfig("error", "json", io.Discard)
	db, err := NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	if err := ApplyMigrations(context.Background(), db, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
