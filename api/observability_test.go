package api

import (
	"net/http"
	"strings"
	"testing"
)

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	decodeBody(t, rr, &body)
	if body["ok"] != true {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t)
	if rr := env.do(http.MethodGet, "/readyz", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestMetricsEndpointDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Observability.MetricsEnabled = false
	env := newTestEnvWithConfig(t, cfg)
	if rr := env.do(http.MethodGet, "/metrics", "", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestMetricsEndpointRequiresTokenOutsideDev(t *testing.T) {
	cfg := testConfig(t)
	cfg.Observability.MetricsToken = ""
	env := newTestEnvWithConfig(t, cfg)
	if rr := env.do(http.MethodGet, "/metrics", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestMetricsEndpointOpenInDevWithoutToken(t *testing.T) {
	cfg := testConfig(t)
	cfg.AppEnv = "dev"
	cfg.Observability.MetricsToken = ""
	env := newTestEnvWithConfig(t, cfg)
	if rr := env.do(http.MethodGet, "/metrics", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestMetricsEndpointTokenAuth(t *testing.T) {
	env := newTestEnv(t)
	if rr := env.do(http.MethodGet, "/metrics", "wrong", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	env.do(http.MethodGet, "/healthz", "", nil)
	rr := env.do(http.MethodGet, "/metrics", testMetricsToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{
		"securereport_uptime_seconds",
		"securereport_http_requests_total",
		"securereport_reports_query_error 0",
		"securereport_worker_ticks_total",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
