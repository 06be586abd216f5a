package handlers

import (
	"errors"
	"net/http"
	"strings"

	"securereport/core/analytics"
	"securereport/core/auth"
	"securereport/core/rbac"
	"securereport/core/utils"
)

type AnalyticsHandler struct {
	dashboard *analytics.Dashboard
	policy    *rbac.Policy
	logger    *utils.Logger
}

func NewAnalyticsHandler(dashboard *analytics.Dashboard, policy *rbac.Policy, logger *utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{dashboard: dashboard, policy: policy, logger: logger}
}

type statsQuery struct {
	Year       *int   `json:"year" validate:"omitempty,gte=1,lte=9999"`
	Month      *int   `json:"month" validate:"omitempty,gte=1,lte=12"`
	Day        *int   `json:"day" validate:"omitempty,gte=1,lte=31"`
	Location   string `json:"location" validate:"max=255"`
	FilterMode string `json:"filter_mode" validate:"omitempty,oneof=day week month"`
	Lang       string `json:"lang" validate:"omitempty,oneof=ar en"`
	GeoLevel   *int   `json:"geo_level" validate:"omitempty,gte=0,lte=30"`
}

type recentQuery struct {
	Period string `json:"period" validate:"omitempty,oneof=daily weekly monthly"`
	Lang   string `json:"lang" validate:"omitempty,oneof=ar en"`
}

// visibility is Full only for an active caller holding dashboard.view.
func (h *AnalyticsHandler) visibility(r *http.Request) analytics.Visibility {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok || !p.Active() {
		return analytics.VisibilityPublic
	}
	if h.policy.Allowed([]string{p.Role}, rbac.PermDashboardView) {
		return analytics.VisibilityFull
	}
	return analytics.VisibilityPublic
}

func parseStatsQuery(r *http.Request) (analytics.Query, []fieldError) {
	var q statsQuery
	var fields []fieldError
	for _, p := range []struct {
		key string
		dst **int
	}{
		{"year", &q.Year},
		{"month", &q.Month},
		{"day", &q.Day},
		{"geo_level", &q.GeoLevel},
	} {
		v, err := parseIntQuery(r, p.key)
		if err != nil {
			fields = append(fields, fieldError{Field: p.key, Message: err.Error()})
			continue
		}
		*p.dst = v
	}
	values := r.URL.Query()
	q.Location = strings.TrimSpace(values.Get("location"))
	q.FilterMode = strings.ToLower(strings.TrimSpace(values.Get("filter_mode")))
	q.Lang = strings.ToLower(strings.TrimSpace(values.Get("lang")))
	if len(fields) > 0 {
		return analytics.Query{}, fields
	}
	if fields := validateStruct(q); fields != nil {
		return analytics.Query{}, fields
	}
	mode, _ := analytics.ParseFilterMode(q.FilterMode)
	return analytics.Query{
		Criteria: analytics.Criteria{Year: q.Year, Month: q.Month, Day: q.Day, Location: q.Location},
		Mode:     mode,
		Lang:     q.Lang,
		GeoLevel: q.GeoLevel,
	}, nil
}

func (h *AnalyticsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	q, fields := parseStatsQuery(r)
	if fields != nil {
		writeValidation(w, fields)
		return
	}
	payload, err := h.dashboard.Stats(r.Context(), h.visibility(r), q)
	if err != nil {
		h.logger.Errorf("analytics stats: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *AnalyticsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	q := recentQuery{
		Period: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("period"))),
		Lang:   strings.ToLower(strings.TrimSpace(r.URL.Query().Get("lang"))),
	}
	if fields := validateStruct(q); fields != nil {
		writeValidation(w, fields)
		return
	}
	payload, err := h.dashboard.Recent(r.Context(), h.visibility(r), q.Period, q.Lang)
	if err != nil {
		h.logger.Errorf("analytics recent: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *AnalyticsHandler) SiteStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.SiteStats(r.Context())
	if err != nil {
		h.logger.Errorf("analytics site stats: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ChartSVG renders one dashboard chart as an SVG image.
func (h *AnalyticsHandler) ChartSVG(w http.ResponseWriter, r *http.Request) {
	q, fields := parseStatsQuery(r)
	if fields != nil {
		writeValidation(w, fields)
		return
	}
	data, err := h.dashboard.Chart(r.Context(), q, urlParam(r, "name"))
	if err != nil {
		if errors.Is(err, analytics.ErrUnknownChart) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.logger.Errorf("analytics chart: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	svg, err := analytics.RenderSVG(data)
	if err != nil {
		h.logger.Errorf("render chart %s: %v", data.Name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}
