package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"securereport/core/reports"
)

// Visibility decides how much of the dashboard a caller may see.
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityFull
)

// RowSource supplies raw report rows; store.ReportsStore satisfies it.
type RowSource interface {
	AnalyticsRows(ctx context.Context) ([]map[string]any, error)
}

type Query struct {
	Criteria
	Mode     FilterMode
	Lang     string
	GeoLevel *int
}

// Payload is the dashboard response body. Public callers get empty objects.
type Payload struct {
	KPIs   any `json:"kpis"`
	Charts any `json:"charts"`
}

type Charts struct {
	TimeSeries           Series       `json:"timeSeries"`
	DistributionByType   Series       `json:"distributionByType"`
	DistributionByStatus Series       `json:"distributionByStatus"`
	GeoPoints            []GeoPoint   `json:"geoPoints"`
	GeoClusters          []GeoCluster `json:"geoClusters,omitempty"`
}

type RecentCharts struct {
	TimeSeries           Series     `json:"timeSeries"`
	DistributionByStatus Series     `json:"distributionByStatus"`
	GeoPoints            []GeoPoint `json:"geoPoints"`
}

type SiteStats struct {
	TotalReports     int     `json:"total_reports"`
	SolvedReports    int     `json:"solved_reports"`
	SolvedPercentage float64 `json:"solved_percentage"`
}

var ErrUnknownChart = errors.New("unknown chart")

const (
	ChartTimeSeries = "time_series"
	ChartByType     = "by_type"
	ChartByStatus   = "by_status"
)

// ChartNames lists the charts Dashboard.Chart can build.
func ChartNames() []string {
	return []string{ChartTimeSeries, ChartByType, ChartByStatus}
}

// Dashboard runs the per-request pipeline: fetch, clean, filter, compute.
// It holds no per-request state and is safe for concurrent use.
type Dashboard struct {
	source      RowSource
	loc         *time.Location
	cleaner     *Cleaner
	defaultLang string
	now         func() time.Time
}

func NewDashboard(source RowSource, loc *time.Location, warner Warner, defaultLang string) *Dashboard {
	if loc == nil {
		loc = time.UTC
	}
	return &Dashboard{
		source:      source,
		loc:         loc,
		cleaner:     NewCleaner(warner),
		defaultLang: NormalizeLang(defaultLang),
		now:         time.Now,
	}
}

func emptyPayload() Payload {
	return Payload{KPIs: map[string]any{}, Charts: map[string]any{}}
}

func (d *Dashboard) lang(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return d.defaultLang
	}
	return NormalizeLang(lang)
}

func (d *Dashboard) load(ctx context.Context) (Table, error) {
	rows, err := d.source.AnalyticsRows(ctx)
	if err != nil {
		return Table{}, fmt.Errorf("load report rows: %w", err)
	}
	return d.cleaner.Clean(rows), nil
}

func (d *Dashboard) Stats(ctx context.Context, vis Visibility, q Query) (Payload, error) {
	if vis != VisibilityFull {
		return emptyPayload(), nil
	}
	full, err := d.load(ctx)
	if err != nil {
		return Payload{}, err
	}
	lang := d.lang(q.Lang)
	filtered := Filter(full, q.Criteria)
	kpis := ComputeKPIs(filtered, full, q.Mode).Localize(lang)
	seriesMode := q.Mode
	if seriesMode == ModeNone {
		seriesMode = ModeMonth
	}
	comp := ComposeCharts(filtered, lang)
	charts := Charts{
		TimeSeries:           TimeSeries(filtered, seriesMode, d.now(), d.loc, lang),
		DistributionByType:   comp.DistributionByType,
		DistributionByStatus: comp.DistributionByStatus,
		GeoPoints:            comp.GeoPoints,
	}
	if q.GeoLevel != nil {
		charts.GeoClusters = GeoClusters(comp.GeoPoints, *q.GeoLevel)
	}
	return Payload{KPIs: kpis, Charts: charts}, nil
}

// PeriodMode maps daily, weekly and monthly onto bucket modes; anything else
// is daily.
func PeriodMode(period string) FilterMode {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "weekly":
		return ModeWeek
	case "monthly":
		return ModeMonth
	default:
		return ModeDay
	}
}

func ValidPeriod(period string) bool {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "", "daily", "weekly", "monthly":
		return true
	}
	return false
}

// Recent is the operations dashboard: change-over-period KPIs, the series for
// period and the status mix of the records inside that series.
func (d *Dashboard) Recent(ctx context.Context, vis Visibility, period, lang string) (Payload, error) {
	if vis != VisibilityFull {
		return emptyPayload(), nil
	}
	full, err := d.load(ctx)
	if err != nil {
		return Payload{}, err
	}
	lang = d.lang(lang)
	mode := PeriodMode(period)
	now := d.now()
	window := SeriesWindow(full, mode, now, d.loc)
	comp := ComposeCharts(window, lang)
	return Payload{
		KPIs: ComputeRecentKPIs(full),
		Charts: RecentCharts{
			TimeSeries:           TimeSeries(full, mode, now, d.loc, lang),
			DistributionByStatus: comp.DistributionByStatus,
			GeoPoints:            ComposeCharts(full, lang).GeoPoints,
		},
	}, nil
}

func (d *Dashboard) SiteStats(ctx context.Context) (SiteStats, error) {
	full, err := d.load(ctx)
	if err != nil {
		return SiteStats{}, err
	}
	solved := 0
	full.Each(func(_ int, r Record) {
		if r.Status == reports.StatusResolved {
			solved++
		}
	})
	return SiteStats{
		TotalReports:     full.Len(),
		SolvedReports:    solved,
		SolvedPercentage: Percentage(solved, full.Len()),
	}, nil
}

// Chart builds one named chart over the filtered table for SVG export.
func (d *Dashboard) Chart(ctx context.Context, q Query, name string) (ChartData, error) {
	lang := d.lang(q.Lang)
	var data ChartData
	switch name {
	case ChartTimeSeries:
		data = ChartData{Kind: KindLine, XLabel: Localized(lang, "chart.axis.month")}
	case ChartByType:
		data = ChartData{Kind: KindBar, XLabel: Localized(lang, "chart.axis.type")}
	case ChartByStatus:
		data = ChartData{Kind: KindBar, XLabel: Localized(lang, "chart.axis.status")}
	default:
		return ChartData{}, fmt.Errorf("%w: %s", ErrUnknownChart, name)
	}
	full, err := d.load(ctx)
	if err != nil {
		return ChartData{}, err
	}
	filtered := Filter(full, q.Criteria)
	var series Series
	switch name {
	case ChartTimeSeries:
		mode := q.Mode
		if mode == ModeNone {
			mode = ModeMonth
		}
		switch mode {
		case ModeDay:
			data.XLabel = Localized(lang, "chart.axis.day")
		case ModeWeek:
			data.XLabel = Localized(lang, "chart.axis.week")
		}
		series = TimeSeries(filtered, mode, d.now(), d.loc, lang)
	case ChartByType:
		series = ComposeCharts(filtered, lang).DistributionByType
	case ChartByStatus:
		series = ComposeCharts(filtered, lang).DistributionByStatus
	}
	data.Name = name
	data.Lang = lang
	data.Title = Localized(lang, "chart.title."+name)
	data.YLabel = Localized(lang, "chart.axis.count")
	data.Labels = series.Labels()
	data.Values = series.Values()
	return data, nil
}
