package api

import (
	"bytes"
	"net/http"
	"testing"

	"securereport/core/rbac"
	"securereport/core/store"
)

func TestAnalyticsStatsVisibility(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("viewer@example.com", "password123", rbac.RoleViewer, store.UserStatusActive)
	token := env.login("viewer@example.com", "password123").Access
	env.createReport(validReportBody())
	second := validReportBody()
	second["report_type"] = "assault"
	env.createReport(second)

	rr := env.do(http.MethodGet, "/api/analytics/stats", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("anonymous stats: %d", rr.Code)
	}
	var public struct {
		KPIs   map[string]any `json:"kpis"`
		Charts map[string]any `json:"charts"`
	}
	decodeBody(t, rr, &public)
	if len(public.KPIs) != 0 || len(public.Charts) != 0 {
		t.Fatalf("anonymous caller got data: %+v", public)
	}

	rr = env.do(http.MethodGet, "/api/analytics/stats?year=2024&lang=en", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("stats: %d %s", rr.Code, rr.Body.String())
	}
	var full struct {
		KPIs struct {
			TotalReports int `json:"total_reports"`
		} `json:"kpis"`
		Charts struct {
			DistributionByType struct {
				Labels []string `json:"labels"`
			} `json:"distributionByType"`
		} `json:"charts"`
	}
	decodeBody(t, rr, &full)
	if full.KPIs.TotalReports != 2 {
		t.Fatalf("expected 2 reports, got %d (%s)", full.KPIs.TotalReports, rr.Body.String())
	}

	rr = env.do(http.MethodGet, "/api/analytics/stats?year=2023", token, nil)
	decodeBody(t, rr, &full)
	if full.KPIs.TotalReports != 0 {
		t.Fatalf("year filter ignored: %d", full.KPIs.TotalReports)
	}
}

func TestAnalyticsStatsValidation(t *testing.T) {
	env := newTestEnv(t)
	for _, q := range []string{"month=13", "day=0", "year=abc", "filter_mode=year", "lang=fr", "geo_level=31"} {
		rr := env.do(http.MethodGet, "/api/analytics/stats?"+q, "", nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, rr.Code)
		}
	}
	if rr := env.do(http.MethodGet, "/api/analytics/recent?period=yearly", "", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad period: expected 400, got %d", rr.Code)
	}
}

func TestAnalyticsRecentAndSiteStats(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("emp@example.com", "password123", rbac.RoleEmployee, store.UserStatusActive)
	token := env.login("emp@example.com", "password123").Access
	env.createReport(validReportBody())

	rr := env.do(http.MethodGet, "/api/analytics/recent?period=weekly", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("recent: %d %s", rr.Code, rr.Body.String())
	}
	var recent struct {
		KPIs struct {
			NewReports struct {
				Value int `json:"value"`
			} `json:"new_reports"`
		} `json:"kpis"`
	}
	decodeBody(t, rr, &recent)
	if recent.KPIs.NewReports.Value != 1 {
		t.Fatalf("expected one new report in window, got %d (%s)", recent.KPIs.NewReports.Value, rr.Body.String())
	}

	rr = env.do(http.MethodGet, "/api/analytics/site_stats", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("site stats: %d", rr.Code)
	}
	var site struct {
		TotalReports  int `json:"total_reports"`
		SolvedReports int `json:"solved_reports"`
	}
	decodeBody(t, rr, &site)
	if site.TotalReports != 1 || site.SolvedReports != 0 {
		t.Fatalf("unexpected site stats %+v", site)
	}
}

func TestAnalyticsChartSVG(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("viewer@example.com", "password123", rbac.RoleViewer, store.UserStatusActive)
	token := env.login("viewer@example.com", "password123").Access
	env.createReport(validReportBody())

	if rr := env.do(http.MethodGet, "/api/analytics/charts/by_type.svg", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous chart: expected 401, got %d", rr.Code)
	}
	rr := env.do(http.MethodGet, "/api/analytics/charts/by_type.svg?lang=en", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("chart: %d %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("<svg")) {
		t.Fatalf("body is not svg")
	}
	if rr = env.do(http.MethodGet, "/api/analytics/charts/nope.svg", token, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown chart: expected 404, got %d", rr.Code)
	}
}
