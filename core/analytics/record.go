// Package analytics turns stored report rows into dashboard KPIs and charts.
//
// Every request builds its own Table from a fresh storage read; tables are
// immutable once the Cleaner returns them and are dropped after the response
// is written.
package analytics

import (
	"time"

	"securereport/core/reports"
)

// Record is one cleaned report. Optional values are nil when the source field
// was absent or could not be parsed.
type Record struct {
	Location      string
	Latitude      *float64
	Longitude     *float64
	IncidentDate  *time.Time
	CreatedAt     *time.Time
	ReportDetails string
	ReportType    reports.Category
	Status        reports.Status
	Severity      reports.Severity
}

func (r Record) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Table is an ordered, read-only collection of cleaned records.
type Table struct {
	records []Record
}

func newTable(records []Record) Table {
	return Table{records: records}
}

func (t Table) Len() int {
	return len(t.records)
}

func (t Table) At(i int) Record {
	return t.records[i]
}

func (t Table) Each(fn func(i int, r Record)) {
	for i, r := range t.records {
		fn(i, r)
	}
}

// where returns a new table holding the records for which keep is true.
func (t Table) where(keep func(r Record) bool) Table {
	out := make([]Record, 0, len(t.records))
	for _, r := range t.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return newTable(out)
}

// Rows converts the table back to raw field mappings in the shape the Cleaner
// accepts.
func (t Table) Rows() []map[string]any {
	out := make([]map[string]any, 0, len(t.records))
	for _, r := range t.records {
		row := map[string]any{
			"location":       r.Location,
			"report_details": r.ReportDetails,
			"report_type":    string(r.ReportType),
			"status":         string(r.Status),
			"severity":       string(r.Severity),
			"incident_date":  nil,
			"created_at":     nil,
			"latitude":       nil,
			"longitude":      nil,
		}
		if r.IncidentDate != nil {
			row["incident_date"] = *r.IncidentDate
		}
		if r.CreatedAt != nil {
			row["created_at"] = *r.CreatedAt
		}
		if r.Latitude != nil {
			row["latitude"] = *r.Latitude
		}
		if r.Longitude != nil {
			row["longitude"] = *r.Longitude
		}
		out = append(out, row)
	}
	return out
}
