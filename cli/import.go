package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"securereport/core/analytics"
	"securereport/core/reports"
	"securereport/core/utils"

	"github.com/shopspring/decimal"
)

type importResult struct {
	Imported int
	Skipped  int
}

// importCSV loads demo or historical reports. Rows go through the analytics
// Cleaner so dates, coordinates and labels are coerced the same way the
// dashboard reads them; every created report is flagged is_fake.
func importCSV(ctx context.Context, r io.Reader, svc *reports.Service, logger *utils.Logger) (importResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return importResult{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return importResult{}, errors.New("csv is empty")
	}
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	rows := make([]map[string]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]any, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(rec) {
				continue
			}
			row[h] = rec[i]
		}
		rows = append(rows, row)
	}

	var w analytics.Warner
	if logger != nil {
		w = logger
	}
	table := analytics.NewCleaner(w).Clean(rows)
	res := importResult{Skipped: len(rows) - table.Len()}
	var firstErr error
	table.Each(func(i int, rec analytics.Record) {
		if firstErr != nil {
			return
		}
		if !rec.ReportType.Known() {
			logger.Warnf("import: record %d skipped, report_type %q", i+1, rec.ReportType)
			res.Skipped++
			return
		}
		in := reports.CreateInput{
			Location:      rec.Location,
			IncidentDate:  rec.IncidentDate,
			ReportDetails: rec.ReportDetails,
			ReportType:    rec.ReportType,
			IsFake:        true,
			Status:        rec.Status,
			CreatedAt:     rec.CreatedAt,
		}
		if rec.HasCoordinates() {
			lat, lon := decimal.NewFromFloat(*rec.Latitude), decimal.NewFromFloat(*rec.Longitude)
			in.Latitude, in.Longitude = &lat, &lon
		}
		if _, err := svc.Create(ctx, in); err != nil {
			firstErr = fmt.Errorf("import record %d: %w", i+1, err)
			return
		}
		res.Imported++
	})
	return res, firstErr
}
