package rbac

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"securereport/config"
	"securereport/core/store"
	"securereport/core/utils"
)

func TestEnsureBuiltInAndRefresh(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.AppConfig{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(dir, "tmp.db") + "?_pragma=foreign_keys(1)&_time_format=sqlite",
	}
	logger := utils.NewLoggerWithConfig("error", "json", io.Discard)
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	roles := store.NewRolesStore(db)
	p := NewPolicy(nil)
	if err := EnsureBuiltInAndRefresh(context.Background(), roles, p); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !p.Allowed([]string{RoleAdmin}, PermLogsView) {
		t.Fatal("Admin must have logs.view after refresh")
	}
	if p.Allowed([]string{RoleViewer}, PermReportsEdit) {
		t.Fatal("Viewer must not edit reports")
	}
	// second run must not duplicate rows
	if err := EnsureBuiltInAndRefresh(context.Background(), roles, p); err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	items, err := roles.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 roles, got %d", len(items))
	}
}
