package appbootstrap

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"securereport/config"
	"securereport/core/bootstrap"
	"securereport/core/rbac"
	"securereport/core/store"
	"securereport/core/utils"
)

func TestInitRuntime(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.AppConfig{
		DBDriver:        "sqlite",
		DBPath:          filepath.Join(dir, "tmp.db") + "?_pragma=foreign_keys(1)&_time_format=sqlite",
		Pepper:          "pepper",
		JWTSecret:       "runtime-test-secret-0123456789abcdef",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		AdminPassword:   "admin-password-1",
		Analytics:       config.AnalyticsConfig{Timezone: "Africa/Cairo", DefaultLang: "ar"},
		Attachments:     config.AttachmentsConfig{StorageDir: filepath.Join(dir, "files", "attachments"), MaxUploadBytes: 1 << 20},
	}
	logger := utils.NewLoggerWithConfig("error", "json", io.Discard)
	rt, err := InitRuntime(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { _ = rt.Shutdown(context.Background()) })

	if st, err := os.Stat(cfg.Attachments.StorageDir); err != nil || !st.IsDir() {
		t.Fatalf("attachments dir not created: %v", err)
	}
	admin, err := store.NewUsersStore(rt.DB).FindByEmail(context.Background(), bootstrap.DefaultAdminEmail)
	if err != nil || admin == nil || admin.Role != rbac.RoleAdmin {
		t.Fatalf("default admin not seeded: %+v %v", admin, err)
	}
	if !rt.Policy.Allowed([]string{rbac.RoleAdmin}, rbac.PermAccountsManage) {
		t.Fatalf("policy not loaded")
	}

	rr := httptest.NewRecorder()
	rt.Server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rr.Code)
	}
}
