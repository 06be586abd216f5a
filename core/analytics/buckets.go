package analytics

import (
	"bytes"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

type Bucket struct {
	Label string
	Count int
}

// Series is an ordered label/count list. It marshals to a JSON object whose
// keys keep the series order.
type Series []Bucket

func (s Series) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(b.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(b.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s Series) Total() int {
	n := 0
	for _, b := range s {
		n += b.Count
	}
	return n
}

func (s Series) Labels() []string {
	out := make([]string, len(s))
	for i, b := range s {
		out[i] = b.Label
	}
	return out
}

func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = float64(b.Count)
	}
	return out
}

// counter builds a Series keyed in first-seen order.
type counter struct {
	idx    map[string]int
	series Series
}

func newCounter() *counter {
	return &counter{idx: map[string]int{}, series: Series{}}
}

func (c *counter) add(label string) {
	if i, ok := c.idx[label]; ok {
		c.series[i].Count++
		return
	}
	c.idx[label] = len(c.series)
	c.series = append(c.series, Bucket{Label: label, Count: 1})
}

var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// SeriesWindow returns the records a time series for mode would count:
//   - day: CreatedAt within the last 7 calendar days ending today in loc
//   - week: IncidentDate within the current calendar month of now in loc
//   - month: any IncidentDate
func SeriesWindow(t Table, mode FilterMode, now time.Time, loc *time.Location) Table {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	switch mode {
	case ModeDay:
		y, m, d := local.Date()
		end := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		start := end.AddDate(0, 0, -7)
		return t.where(func(r Record) bool {
			if r.CreatedAt == nil {
				return false
			}
			c := r.CreatedAt.In(loc)
			return !c.Before(start) && c.Before(end)
		})
	case ModeWeek:
		y, m, _ := local.Date()
		return t.where(func(r Record) bool {
			if r.IncidentDate == nil {
				return false
			}
			ry, rm, _ := r.IncidentDate.Date()
			return ry == y && rm == m
		})
	default:
		return t.where(func(r Record) bool { return r.IncidentDate != nil })
	}
}

// TimeSeries buckets t for mode with a fixed, zero-filled label set: seven
// weekdays Monday to Sunday, four weeks of the month, or twelve months. An
// empty mode is treated as month.
func TimeSeries(t Table, mode FilterMode, now time.Time, loc *time.Location, lang string) Series {
	if loc == nil {
		loc = time.UTC
	}
	win := SeriesWindow(t, mode, now, loc)
	switch mode {
	case ModeDay:
		counts := map[time.Weekday]int{}
		win.Each(func(_ int, r Record) {
			counts[r.CreatedAt.In(loc).Weekday()]++
		})
		out := make(Series, 0, len(weekdayOrder))
		for _, wd := range weekdayOrder {
			out = append(out, Bucket{Label: WeekdayLabel(lang, wd), Count: counts[wd]})
		}
		return out
	case ModeWeek:
		var counts [4]int
		win.Each(func(_ int, r Record) {
			counts[weekOfMonth(r.IncidentDate.Day())-1]++
		})
		out := make(Series, 0, 4)
		for i, n := range counts {
			out = append(out, Bucket{Label: WeekLabel(lang, i+1), Count: n})
		}
		return out
	default:
		var counts [12]int
		win.Each(func(_ int, r Record) {
			counts[r.IncidentDate.Month()-1]++
		})
		out := make(Series, 0, 12)
		for i, n := range counts {
			out = append(out, Bucket{Label: MonthLabel(lang, time.Month(i+1)), Count: n})
		}
		return out
	}
}
