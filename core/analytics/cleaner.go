package analytics

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"securereport/core/reports"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// ErrNotRecordCollection is returned when raw input is not a list of objects.
var ErrNotRecordCollection = errors.New("input is not a record collection")

// Warner receives one warning per unmapped status or category label.
type Warner interface {
	Warnf(format string, v ...any)
}

const (
	fieldLocation      = "location"
	fieldLatitude      = "latitude"
	fieldLongitude     = "longitude"
	fieldIncidentDate  = "incident_date"
	fieldCreatedAt     = "created_at"
	fieldReportDetails = "report_details"
	fieldReportType    = "report_type"
	fieldStatus        = "status"
	fieldSeverity      = "severity"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

// DecodeRows reads a JSON array of objects.
func DecodeRows(r io.Reader) ([]map[string]any, error) {
	var raw any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRecordCollection, err)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, ErrNotRecordCollection
	}
	rows := make([]map[string]any, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrNotRecordCollection, i)
		}
		rows = append(rows, obj)
	}
	return rows, nil
}

// Cleaner coerces raw rows into a Table.
type Cleaner struct {
	warn Warner
}

func NewCleaner(w Warner) *Cleaner {
	return &Cleaner{warn: w}
}

// Clean is Cleaner.Clean without warnings.
func Clean(rows []map[string]any) Table {
	return (&Cleaner{}).Clean(rows)
}

// Clean never fails: malformed fields become absent, text is trimmed and
// NFC-normalised, and exact duplicates after coercion are dropped keeping the
// first occurrence.
func (c *Cleaner) Clean(rows []map[string]any) Table {
	out := make([]Record, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	warned := map[string]struct{}{}
	for _, row := range rows {
		rec := Record{
			Location:      textField(row[fieldLocation]),
			Latitude:      coordField(row[fieldLatitude]),
			Longitude:     coordField(row[fieldLongitude]),
			IncidentDate:  dateField(row[fieldIncidentDate]),
			CreatedAt:     instantField(row[fieldCreatedAt]),
			ReportDetails: textField(row[fieldReportDetails]),
			ReportType:    reports.ParseCategory(textField(row[fieldReportType])),
			Status:        reports.ParseStatus(textField(row[fieldStatus])),
			Severity:      reports.ParseSeverity(textField(row[fieldSeverity])),
		}
		if rec.Status != "" && !rec.Status.Known() {
			c.warnOnce(warned, "status", string(rec.Status))
		}
		if rec.ReportType != "" && !rec.ReportType.Known() {
			c.warnOnce(warned, "report_type", string(rec.ReportType))
		}
		key := recordKey(rec)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return newTable(out)
}

func (c *Cleaner) warnOnce(warned map[string]struct{}, field, label string) {
	if c == nil || c.warn == nil {
		return
	}
	k := field + "\x00" + label
	if _, ok := warned[k]; ok {
		return
	}
	warned[k] = struct{}{}
	c.warn.Warnf("analytics: unmapped %s label %q passed through", field, label)
}

func textField(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	case []byte:
		s = string(t)
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}
	return norm.NFC.String(strings.TrimSpace(s))
}

func coordField(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case decimal.Decimal:
		f = t.InexactFloat64()
	case *decimal.Decimal:
		if t == nil {
			return nil
		}
		f = t.InexactFloat64()
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return nil
		}
		f = d.InexactFloat64()
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parseTimeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case string:
		return parseTimeString(t)
	case []byte:
		return parseTimeString(string(t))
	default:
		return time.Time{}, false
	}
}

// dateField keeps the calendar date as written, at UTC midnight.
func dateField(v any) *time.Time {
	t, ok := asTime(v)
	if !ok {
		return nil
	}
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &day
}

// instantField treats naive timestamps as UTC.
func instantField(v any) *time.Time {
	t, ok := asTime(v)
	if !ok {
		return nil
	}
	u := t.UTC()
	return &u
}

func recordKey(r Record) string {
	var b strings.Builder
	b.Grow(128 + len(r.ReportDetails))
	writeText := func(s string) {
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	writeFloat := func(f *float64) {
		if f == nil {
			b.WriteString("-|")
			return
		}
		b.WriteString(strconv.FormatFloat(*f, 'g', -1, 64))
		b.WriteByte('|')
	}
	writeTime := func(t *time.Time) {
		if t == nil {
			b.WriteString("-|")
			return
		}
		b.WriteString(strconv.FormatInt(t.UnixNano(), 10))
		b.WriteByte('|')
	}
	writeText(r.Location)
	writeFloat(r.Latitude)
	writeFloat(r.Longitude)
	writeTime(r.IncidentDate)
	writeTime(r.CreatedAt)
	writeText(r.ReportDetails)
	writeText(string(r.ReportType))
	writeText(string(r.Status))
	writeText(string(r.Severity))
	return b.String()
}
