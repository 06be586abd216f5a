package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"securereport/config"
	"securereport/core/auth"
	"securereport/core/store"
	"securereport/core/utils"

	"github.com/goccy/go-json"
)

const (
	testPepper       = "pepper"
	testMetricsToken = "0123456789abcdef0123456789abcdef"
)

type captureMailer struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = map[string]string{}
	}
	m.tokens[email] = token
	return nil
}

func (m *captureMailer) token(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[email]
}

type testEnv struct {
	t       *testing.T
	cfg     *config.AppConfig
	srv     *Server
	users   store.UsersStore
	reports store.ReportsStore
	audits  store.AuditStore
	mailer  *captureMailer
}

func testConfig(t *testing.T) *config.AppConfig {
	dir := t.TempDir()
	return &config.AppConfig{
		DBDriver:        "sqlite",
		DBPath:          filepath.Join(dir, "tmp.db") + "?_pragma=foreign_keys(1)&_time_format=sqlite",
		AppEnv:          "prod",
		Pepper:          testPepper,
		JWTSecret:       "test-jwt-secret-0123456789abcdef",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		ResetTokenTTL:   30 * time.Minute,
		Analytics:       config.AnalyticsConfig{Timezone: "UTC", DefaultLang: "en"},
		Attachments:     config.AttachmentsConfig{StorageDir: filepath.Join(dir, "attachments"), MaxUploadBytes: 1 << 20},
		Observability:   config.ObservabilityConfig{MetricsEnabled: true, MetricsToken: testMetricsToken},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, testConfig(t))
}

func newTestEnvWithConfig(t *testing.T, cfg *config.AppConfig) *testEnv {
	t.Helper()
	logger := utils.NewLoggerWithConfig("error", "json", io.Discard)
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	mailer := &captureMailer{}
	srv := NewServerWithDeps(cfg, db, ServerDeps{Mailer: mailer}, logger)
	return &testEnv{
		t:       t,
		cfg:     cfg,
		srv:     srv,
		users:   srv.users,
		reports: srv.reportsStore,
		audits:  srv.audits,
		mailer:  mailer,
	}
}

func (e *testEnv) addUser(email, password, role, status string) *store.User {
	e.t.Helper()
	ph, err := auth.HashPassword(password, testPepper)
	if err != nil {
		e.t.Fatalf("hash: %v", err)
	}
	u := &store.User{Email: email, FullName: role + " user", Role: role, Status: status, PasswordHash: ph.Hash, Salt: ph.Salt}
	id, err := e.users.Create(context.Background(), u)
	if err != nil {
		e.t.Fatalf("create user: %v", err)
	}
	u.ID = id
	return u
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) login(email, password string) auth.LoginResult {
	e.t.Helper()
	rr := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	if rr.Code != http.StatusOK {
		e.t.Fatalf("login %s: %d %s", email, rr.Code, rr.Body.String())
	}
	var res auth.LoginResult
	decodeBody(e.t, rr, &res)
	if res.Access == "" || res.Refresh == "" {
		e.t.Fatalf("login returned empty tokens: %s", rr.Body.String())
	}
	return res
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func detailOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	decodeBody(t, rr, &body)
	return body.Detail
}
