package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// coordinatePlaces matches the decimal(18,15) precision of stored coordinates.
const coordinatePlaces = 15

// boolToInt converts a boolean into 0/1 for integer flag columns.
func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullTime(ts *time.Time) any {
	if ts == nil {
		return nil
	}
	return ts.UTC()
}

func nullDate(ts *time.Time) any {
	if ts == nil {
		return nil
	}
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func datePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	y, m, d := nt.Time.Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func decimalToText(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.StringFixed(coordinatePlaces)
}

func textToDecimal(ns sql.NullString) *decimal.Decimal {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(ns.String))
	if err != nil {
		return nil
	}
	return &d
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
