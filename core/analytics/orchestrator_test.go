package analytics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	rows  []map[string]any
	err   error
	calls int
}

func (s *staticSource) AnalyticsRows(ctx context.Context) ([]map[string]any, error) {
	s.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.rows, s.err
}

func newTestDashboard(src RowSource) *Dashboard {
	d := NewDashboard(src, time.UTC, nil, "ar")
	d.now = func() time.Time { return fixedNow }
	return d
}

func dashboardRows() []map[string]any {
	rows := []map[string]any{
		{"report_details": "1", "incident_date": "2024-01-05", "status": "تم الحل", "report_type": "سرقة", "location": "Cairo", "latitude": "30.1", "longitude": "31.2"},
		{"report_details": "2", "incident_date": "2024-01-05", "status": "تم الحل", "report_type": "سرقة", "location": "Cairo"},
		{"report_details": "3", "incident_date": "2024-02-10", "status": "تم الحل", "report_type": "ابتزاز", "location": "Giza"},
	}
	for i := 4; i <= 10; i++ {
		rows = append(rows, map[string]any{
			"report_details": string(rune('0' + i)),
			"incident_date":  "2024-03-02",
			"created_at":     "2024-03-12T08:00:00Z",
			"status":         "قيد المراجعة",
			"location":       "Alexandria",
		})
	}
	return rows
}

func TestStatsPublicIsEmpty(t *testing.T) {
	src := &staticSource{rows: dashboardRows()}
	p, err := newTestDashboard(src).Stats(context.Background(), VisibilityPublic, Query{})
	require.NoError(t, err)
	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"kpis":{},"charts":{}}`, string(out))
	assert.Equal(t, 0, src.calls)
}

func TestStatsFullPipeline(t *testing.T) {
	src := &staticSource{rows: dashboardRows()}
	p, err := newTestDashboard(src).Stats(context.Background(), VisibilityFull, Query{
		Criteria: Criteria{Year: intp(2024)},
		Lang:     "en",
	})
	require.NoError(t, err)
	kpis, ok := p.KPIs.(KPIs)
	require.True(t, ok)
	assert.Equal(t, 10, kpis.TotalReports)
	assert.Equal(t, 3, kpis.Solved.Count)
	assert.Equal(t, 30.0, kpis.Solved.Percentage)
	assert.Equal(t, TrendNeutral, kpis.Solved.Trend)
	assert.Equal(t, "Theft", *kpis.TopReportType)
	assert.Equal(t, "Alexandria", *kpis.TopRegion)

	charts, ok := p.Charts.(Charts)
	require.True(t, ok)
	require.Len(t, charts.TimeSeries, 12)
	assert.Equal(t, "January", charts.TimeSeries[0].Label)
	assert.Equal(t, 2, charts.TimeSeries[0].Count)
	assert.Equal(t, 7, charts.TimeSeries[2].Count)
	assert.Equal(t, "Resolved", charts.DistributionByStatus[0].Label)
	assert.Len(t, charts.GeoPoints, 1)
	assert.Nil(t, charts.GeoClusters)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "geoClusters")
	assert.Contains(t, string(out), `"timeSeries":{"January":2,`)
}

func TestStatsModeAndGeoLevel(t *testing.T) {
	src := &staticSource{rows: dashboardRows()}
	level := 10
	p, err := newTestDashboard(src).Stats(context.Background(), VisibilityFull, Query{
		Criteria: Criteria{Month: intp(3)},
		Mode:     ModeWeek,
		GeoLevel: &level,
	})
	require.NoError(t, err)
	kpis := p.KPIs.(KPIs)
	assert.Equal(t, 7, kpis.UnderReview.Count)
	// 7 in March against 7 over 3 weekly buckets
	assert.Equal(t, TrendIncrease, kpis.UnderReview.Trend)
	charts := p.Charts.(Charts)
	assert.Len(t, charts.TimeSeries, 4)
	assert.Equal(t, 7, charts.TimeSeries[0].Count)
	assert.NotNil(t, charts.GeoClusters)
	assert.Empty(t, charts.GeoClusters)
}

func TestStatsSourceFailure(t *testing.T) {
	boom := errors.New("db down")
	_, err := newTestDashboard(&staticSource{err: boom}).Stats(context.Background(), VisibilityFull, Query{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestStatsHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestDashboard(&staticSource{}).Stats(ctx, VisibilityFull, Query{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecent(t *testing.T) {
	src := &staticSource{rows: dashboardRows()}
	d := newTestDashboard(src)

	p, err := d.Recent(context.Background(), VisibilityPublic, "daily", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, p.KPIs)

	p, err = d.Recent(context.Background(), VisibilityFull, "daily", "")
	require.NoError(t, err)
	kpis := p.KPIs.(RecentKPIs)
	assert.Equal(t, 10, kpis.TotalReports.Value)
	assert.Equal(t, 7, kpis.UnderReview.Value)
	charts := p.Charts.(RecentCharts)
	require.Len(t, charts.TimeSeries, 7)
	assert.Equal(t, "الاثنين", charts.TimeSeries[0].Label)
	// every dated-by-creation record was created on Tuesday 2024-03-12
	assert.Equal(t, 7, charts.TimeSeries[1].Count)
	assert.Equal(t, Series{{Label: "قيد المراجعة", Count: 7}}, charts.DistributionByStatus)
	assert.Len(t, charts.GeoPoints, 1)

	p, err = d.Recent(context.Background(), VisibilityFull, "monthly", "en")
	require.NoError(t, err)
	assert.Len(t, p.Charts.(RecentCharts).TimeSeries, 12)
}

func TestPeriodMode(t *testing.T) {
	assert.Equal(t, ModeDay, PeriodMode(""))
	assert.Equal(t, ModeDay, PeriodMode("daily"))
	assert.Equal(t, ModeWeek, PeriodMode("Weekly"))
	assert.Equal(t, ModeMonth, PeriodMode("monthly"))
	assert.True(t, ValidPeriod(""))
	assert.False(t, ValidPeriod("yearly"))
}

func TestSiteStats(t *testing.T) {
	s, err := newTestDashboard(&staticSource{rows: dashboardRows()}).SiteStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SiteStats{TotalReports: 10, SolvedReports: 3, SolvedPercentage: 30}, s)

	empty, err := newTestDashboard(&staticSource{}).SiteStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SiteStats{}, empty)
}

func TestChartAndRender(t *testing.T) {
	d := newTestDashboard(&staticSource{rows: dashboardRows()})
	data, err := d.Chart(context.Background(), Query{Lang: "en"}, ChartByType)
	require.NoError(t, err)
	assert.Equal(t, "Reports by type", data.Title)
	assert.Equal(t, []string{"Theft", "Blackmail"}, data.Labels)
	assert.Equal(t, []float64{2, 1}, data.Values)

	svg, err := RenderSVG(data)
	require.NoError(t, err)
	text := string(svg)
	assert.True(t, strings.HasPrefix(text, "<svg"))
	assert.True(t, strings.HasSuffix(text, "</svg>"))
	assert.Contains(t, text, "Reports by type")

	_, err = d.Chart(context.Background(), Query{}, "pie")
	assert.ErrorIs(t, err, ErrUnknownChart)
}

func TestRenderSVGEscapesAndTrimsLabels(t *testing.T) {
	svg, err := RenderSVG(ChartData{
		Title:  "a < b & c",
		Kind:   KindLine,
		Labels: []string{"تم استلام البلاغ", "x"},
		Values: []float64{1, 2.5},
	})
	require.NoError(t, err)
	text := string(svg)
	assert.Contains(t, text, "a &lt; b &amp; c")
	assert.Contains(t, text, "تم استلام...")
	assert.Contains(t, text, "<path")
}

func TestRenderSVGCountAxis(t *testing.T) {
	svg, err := RenderSVG(ChartData{Kind: KindBar, Labels: []string{"a", "b"}, Values: []float64{5, 1}})
	require.NoError(t, err)
	text := string(svg)
	// five rounds up to eight, ticks every two
	for _, tick := range []string{">0</text>", ">2</text>", ">4</text>", ">6</text>", ">8</text>"} {
		assert.Contains(t, text, tick)
	}
	assert.NotContains(t, text, ">1.2")
	assert.Equal(t, 2, strings.Count(text, `fill="#0f766e"`))

	assert.Equal(t, 4, countCeiling(nil))
	assert.Equal(t, 4, countCeiling([]float64{4}))
	assert.Equal(t, 8, countCeiling([]float64{4.5}))
}

func TestRenderSVGArabicTitleAlignsRight(t *testing.T) {
	svg, err := RenderSVG(ChartData{Title: "البلاغات", Lang: "ar", Kind: KindBar, Labels: []string{"x"}, Values: []float64{1}})
	require.NoError(t, err)
	assert.Contains(t, string(svg), `text-anchor="end">البلاغات</text>`)

	svg, err = RenderSVG(ChartData{Title: "Reports", Lang: "en", Kind: KindBar})
	require.NoError(t, err)
	assert.Contains(t, string(svg), `text-anchor="start">Reports</text>`)
}
