package bootstrap

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"securereport/config"
	"securereport/core/auth"
	"securereport/core/rbac"
	"securereport/core/store"
	"securereport/core/utils"
)

func TestSeedCreatesAdminOnce(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.AppConfig{
		DBDriver:      "sqlite",
		DBPath:        filepath.Join(dir, "tmp.db") + "?_pragma=foreign_keys(1)&_time_format=sqlite",
		Pepper:        "pepper",
		AdminPassword: "admin-password-1",
	}
	logger := utils.NewLoggerWithConfig("error", "json", io.Discard)
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	policy := rbac.NewPolicy(nil)
	ctx := context.Background()
	if err := Seed(ctx, db, cfg, policy, logger); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := Seed(ctx, db, cfg, policy, logger); err != nil {
		t.Fatalf("seed again: %v", err)
	}
	users := store.NewUsersStore(db)
	n, err := users.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected one user, got %d (%v)", n, err)
	}
	admin, err := users.FindByEmail(ctx, DefaultAdminEmail)
	if err != nil || admin == nil {
		t.Fatalf("admin missing: %v", err)
	}
	ph, _ := auth.ParsePasswordHash(admin.PasswordHash, admin.Salt)
	if ok, _ := auth.VerifyPassword("admin-password-1", "pepper", ph); !ok {
		t.Fatal("admin password mismatch")
	}
	if !policy.Allowed([]string{admin.Role}, rbac.PermAccountsManage) {
		t.Fatal("admin must manage accounts")
	}

	admin.Status = store.UserStatusInactive
	admin.Role = rbac.RoleViewer
	if err := users.Update(ctx, admin); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := EnsureDefaultAdmin(ctx, db, cfg, logger); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	admin, _ = users.FindByEmail(ctx, DefaultAdminEmail)
	if admin.Role != rbac.RoleAdmin || !admin.IsActive() {
		t.Fatalf("admin not restored: %+v", admin)
	}
}
