package analytics

import (
	"strings"

	"golang.org/x/text/cases"
)

// Criteria narrows a table. Nil date parts and an empty location impose no
// constraint.
type Criteria struct {
	Year     *int
	Month    *int
	Day      *int
	Location string
}

func (c Criteria) hasDatePart() bool {
	return c.Year != nil || c.Month != nil || c.Day != nil
}

// Filter keeps the records matching every given criterion, in table order.
// Date parts match IncidentDate; records without one never match a date
// criterion. Location is a case-insensitive substring match under Unicode
// case folding.
func Filter(t Table, c Criteria) Table {
	needle := ""
	var fold cases.Caser
	if loc := strings.TrimSpace(c.Location); loc != "" {
		fold = cases.Fold()
		needle = fold.String(loc)
	}
	return t.where(func(r Record) bool {
		if c.hasDatePart() {
			if r.IncidentDate == nil {
				return false
			}
			y, m, d := r.IncidentDate.Date()
			if c.Year != nil && y != *c.Year {
				return false
			}
			if c.Month != nil && int(m) != *c.Month {
				return false
			}
			if c.Day != nil && d != *c.Day {
				return false
			}
		}
		if needle != "" && !strings.Contains(fold.String(r.Location), needle) {
			return false
		}
		return true
	})
}
