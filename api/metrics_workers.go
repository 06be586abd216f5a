package api

import (
	"securereport/core/maintenance"

	"github.com/prometheus/client_golang/prometheus"
)

type workersMetricsCollector struct {
	maintenance *maintenance.Scheduler

	ticksTotalDesc      *prometheus.Desc
	tickErrorsTotalDesc *prometheus.Desc
	purgedTotalDesc     *prometheus.Desc
	lastTickDesc        *prometheus.Desc
}

func newWorkersMetricsCollector(m *maintenance.Scheduler) prometheus.Collector {
	return &workersMetricsCollector{
		maintenance: m,
		ticksTotalDesc: prometheus.NewDesc(
			"securereport_worker_ticks_total",
			"Total number of scheduler/worker ticks.",
			[]string{"worker"},
			nil,
		),
		tickErrorsTotalDesc: prometheus.NewDesc(
			"securereport_worker_tick_errors_total",
			"Total number of scheduler/worker tick errors.",
			[]string{"worker"},
			nil,
		),
		purgedTotalDesc: prometheus.NewDesc(
			"securereport_sessions_purged_total",
			"Total number of expired or revoked sessions purged.",
			nil,
			nil,
		),
		lastTickDesc: prometheus.NewDesc(
			"securereport_worker_last_tick_timestamp",
			"Unix timestamp of the last scheduler/worker tick.",
			[]string{"worker"},
			nil,
		),
	}
}

func (c *workersMetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.ticksTotalDesc
	ch <- c.tickErrorsTotalDesc
	ch <- c.purgedTotalDesc
	ch <- c.lastTickDesc
}

func (c *workersMetricsCollector) Collect(ch chan<- prometheus.Metric) {
	if c == nil || c.maintenance == nil {
		return
	}
	s := c.maintenance.StatsSnapshot()
	ch <- prometheus.MustNewConstMetric(c.ticksTotalDesc, prometheus.CounterValue, float64(s.TicksTotal), "maintenance")
	ch <- prometheus.MustNewConstMetric(c.tickErrorsTotalDesc, prometheus.CounterValue, float64(s.TickErrorsTotal), "maintenance")
	ch <- prometheus.MustNewConstMetric(c.purgedTotalDesc, prometheus.CounterValue, float64(s.PurgedTotal))
	if s.LastTickAtUTC != nil {
		ch <- prometheus.MustNewConstMetric(c.lastTickDesc, prometheus.GaugeValue, float64(s.LastTickAtUTC.Unix()), "maintenance")
	}
}
