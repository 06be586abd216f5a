package api

import (
	"context"
	"time"

	"securereport/core/reports"
	"securereport/core/store"

	"github.com/prometheus/client_golang/prometheus"
)

type reportsMetricsCollector struct {
	reports store.ReportsStore

	countDesc      *prometheus.Desc
	queryErrorDesc *prometheus.Desc
}

func newReportsMetricsCollector(rs store.ReportsStore) prometheus.Collector {
	return &reportsMetricsCollector{
		reports: rs,
		countDesc: prometheus.NewDesc(
			"securereport_reports_count",
			"Number of stored reports by case status.",
			[]string{"status"},
			nil,
		),
		queryErrorDesc: prometheus.NewDesc(
			"securereport_reports_query_error",
			"Whether the reports metrics query failed (1) or succeeded (0).",
			nil,
			nil,
		),
	}
}

func (c *reportsMetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.countDesc
	ch <- c.queryErrorDesc
}

// Collect reports counts under status codes; labels that do not map to a
// known status are exported as stored.
func (c *reportsMetricsCollector) Collect(ch chan<- prometheus.Metric) {
	if c == nil || c.reports == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 900*time.Millisecond)
	defer cancel()
	counts, err := c.reports.CountByStatus(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.queryErrorDesc, prometheus.GaugeValue, 1)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.queryErrorDesc, prometheus.GaugeValue, 0)
	byCode := map[string]float64{}
	for _, s := range reports.AllStatuses() {
		byCode[string(s)] = 0
	}
	for label, n := range counts {
		byCode[string(reports.ParseStatus(label))] += float64(n)
	}
	for code, n := range byCode {
		ch <- prometheus.MustNewConstMetric(c.countDesc, prometheus.GaugeValue, n, code)
	}
}
