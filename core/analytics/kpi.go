package analytics

import (
	"math"
	"strings"
	"time"

	"securereport/core/reports"
)

type Trend string

const (
	TrendIncrease Trend = "increase"
	TrendDecrease Trend = "decrease"
	TrendNeutral  Trend = "neutral"
)

// FilterMode selects the calendar bucketing used by trends and time series.
type FilterMode string

const (
	ModeNone  FilterMode = ""
	ModeDay   FilterMode = "day"
	ModeWeek  FilterMode = "week"
	ModeMonth FilterMode = "month"
)

func ParseFilterMode(raw string) (FilterMode, bool) {
	switch FilterMode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeNone:
		return ModeNone, true
	case ModeDay:
		return ModeDay, true
	case ModeWeek:
		return ModeWeek, true
	case ModeMonth:
		return ModeMonth, true
	}
	return ModeNone, false
}

// Percentage is count/total*100 rounded to two decimals, 0 when total is 0.
func Percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(count) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type StatusKPI struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Trend      Trend   `json:"trend"`
}

// KPIs field order is the JSON order.
type KPIs struct {
	TotalReports  int       `json:"total_reports"`
	Received      StatusKPI `json:"received"`
	UnderReview   StatusKPI `json:"under_review"`
	InProgress    StatusKPI `json:"in_progress"`
	Solved        StatusKPI `json:"solved"`
	Closed        StatusKPI `json:"closed"`
	TopReportType *string   `json:"top_report_type"`
	TopRegion     *string   `json:"top_region"`
}

// ComputeKPIs counts statuses in filtered and derives each trend against the
// per-bucket mean of the same status in full. top_report_type carries the
// stored (Arabic) category label; see KPIs.Localize.
func ComputeKPIs(filtered, full Table, mode FilterMode) KPIs {
	total := filtered.Len()
	counts := map[reports.Status]int{}
	filtered.Each(func(_ int, r Record) {
		counts[r.Status]++
	})
	baseline := newTrendBaseline(full, mode)
	kpi := func(s reports.Status) StatusKPI {
		n := counts[s]
		return StatusKPI{
			Count:      n,
			Percentage: Percentage(n, total),
			Trend:      baseline.trend(s, n, total),
		}
	}
	out := KPIs{
		TotalReports: total,
		Received:     kpi(reports.StatusReceived),
		UnderReview:  kpi(reports.StatusUnderReview),
		InProgress:   kpi(reports.StatusInProgress),
		Solved:       kpi(reports.StatusResolved),
		Closed:       kpi(reports.StatusClosed),
	}
	if top, ok := mostFrequent(filtered, func(r Record) string { return string(r.ReportType) }); ok {
		label := reports.Category(top).Label()
		out.TopReportType = &label
	}
	if top, ok := mostFrequent(filtered, func(r Record) string { return r.Location }); ok {
		out.TopRegion = &top
	}
	return out
}

// Localize rewrites top_report_type into lang.
func (k KPIs) Localize(lang string) KPIs {
	if k.TopReportType != nil {
		label := CategoryLabel(lang, reports.ParseCategory(*k.TopReportType))
		k.TopReportType = &label
	}
	return k
}

// mostFrequent returns the most frequent non-empty value. Ties go to the value that
// appears first in table order.
func mostFrequent(t Table, value func(Record) string) (string, bool) {
	counts := map[string]int{}
	var order []string
	t.Each(func(_ int, r Record) {
		v := value(r)
		if v == "" {
			return
		}
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	})
	best, bestN := "", 0
	for _, v := range order {
		if counts[v] > bestN {
			best, bestN = v, counts[v]
		}
	}
	return best, bestN > 0
}

type trendBaseline struct {
	mode     FilterMode
	buckets  int
	byStatus map[reports.Status]int
}

func newTrendBaseline(full Table, mode FilterMode) trendBaseline {
	b := trendBaseline{mode: mode, byStatus: map[reports.Status]int{}}
	if mode == ModeNone {
		return b
	}
	seen := map[int]struct{}{}
	full.Each(func(_ int, r Record) {
		if r.IncidentDate == nil {
			return
		}
		seen[trendBucket(*r.IncidentDate, mode)] = struct{}{}
		b.byStatus[r.Status]++
	})
	b.buckets = len(seen)
	return b
}

// trend compares the filtered count with the mean count per bucket.
func (b trendBaseline) trend(s reports.Status, count, total int) Trend {
	if total == 0 || b.mode == ModeNone || b.buckets == 0 {
		return TrendNeutral
	}
	mean := float64(b.byStatus[s]) / float64(b.buckets)
	if float64(count) > mean {
		return TrendIncrease
	}
	return TrendDecrease
}

// trendBucket keys a date by the calendar part the mode compares on,
// ignoring the year and, for day and week, the month.
func trendBucket(d time.Time, mode FilterMode) int {
	_, m, day := d.Date()
	switch mode {
	case ModeDay:
		return day
	case ModeWeek:
		return weekOfMonth(day)
	default:
		return int(m)
	}
}

// weekOfMonth numbers days 1-7 as week 1; days 29-31 fold into week 4.
func weekOfMonth(day int) int {
	w := (day-1)/7 + 1
	if w > 4 {
		w = 4
	}
	return w
}

type RecentKPI struct {
	Value  int     `json:"value"`
	Change float64 `json:"change"`
	Trend  Trend   `json:"trend"`
}

type RecentKPIs struct {
	TotalReports    RecentKPI `json:"total_reports"`
	NewReports      RecentKPI `json:"new_reports"`
	UnderReview     RecentKPI `json:"under_review"`
	CriticalReports RecentKPI `json:"critical_reports"`
}

// ComputeRecentKPIs compares recent activity with the preceding period. The
// reference day is the latest incident date in the table; totals and
// under-review counts compare the last four months with the four before,
// critical reports compare the reference day with the day before, and new
// reports compare the received count with the previous day's intake.
func ComputeRecentKPIs(t Table) RecentKPIs {
	var out RecentKPIs
	var today time.Time
	hasDate := false
	received, underReview, critical := 0, 0, 0
	t.Each(func(_ int, r Record) {
		switch r.Status {
		case reports.StatusReceived:
			received++
		case reports.StatusUnderReview:
			underReview++
		}
		if r.Severity == reports.SeverityCritical {
			critical++
		}
		if r.IncidentDate != nil && (!hasDate || r.IncidentDate.After(today)) {
			today = *r.IncidentDate
			hasDate = true
		}
	})
	out.TotalReports.Value = t.Len()
	out.NewReports.Value = received
	out.UnderReview.Value = underReview
	out.CriticalReports.Value = critical
	if !hasDate {
		for _, k := range []*RecentKPI{&out.TotalReports, &out.NewReports, &out.UnderReview, &out.CriticalReports} {
			k.Trend = TrendNeutral
		}
		return out
	}
	fourAgo := addMonthsClamped(today, -4)
	eightAgo := addMonthsClamped(fourAgo, -4)
	yesterday := today.AddDate(0, 0, -1)

	var recent, prev, urRecent, urPrev, critToday, critYesterday, yesterdayCount int
	t.Each(func(_ int, r Record) {
		if r.IncidentDate == nil {
			return
		}
		d := *r.IncidentDate
		inRecent := !d.Before(fourAgo)
		inPrev := !d.Before(eightAgo) && d.Before(fourAgo)
		ur := r.Status == reports.StatusUnderReview
		crit := r.Severity == reports.SeverityCritical
		switch {
		case inRecent:
			recent++
			if ur {
				urRecent++
			}
		case inPrev:
			prev++
			if ur {
				urPrev++
			}
		}
		if d.Equal(yesterday) {
			yesterdayCount++
			if crit {
				critYesterday++
			}
		}
		if d.Equal(today) && crit {
			critToday++
		}
	})
	out.TotalReports.Change, out.TotalReports.Trend = calcChange(recent, prev)
	out.NewReports.Change, out.NewReports.Trend = calcChange(received, yesterdayCount)
	out.UnderReview.Change, out.UnderReview.Trend = calcChange(urRecent, urPrev)
	out.CriticalReports.Change, out.CriticalReports.Trend = calcChange(critToday, critYesterday)
	return out
}

func calcChange(current, previous int) (float64, Trend) {
	if previous == 0 {
		if current == 0 {
			return 0, TrendNeutral
		}
		return 100, TrendIncrease
	}
	change := float64(current-previous) / float64(previous) * 100
	trend := TrendNeutral
	if change > 0 {
		trend = TrendIncrease
	} else if change < 0 {
		trend = TrendDecrease
	}
	return round2(math.Abs(change)), trend
}

// addMonthsClamped moves by whole months, clamping to the last day of the
// target month instead of overflowing into the next.
func addMonthsClamped(d time.Time, months int) time.Time {
	y, m, day := d.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, d.Location()).AddDate(0, months, 0)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, d.Location())
}
