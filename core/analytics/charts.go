package analytics

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Composition struct {
	DistributionByType   Series
	DistributionByStatus Series
	GeoPoints            []GeoPoint
}

// ComposeCharts counts records per localised category and status label (in
// first-seen order; empty values are skipped) and lists coordinates of records
// that have both.
func ComposeCharts(t Table, lang string) Composition {
	byType := newCounter()
	byStatus := newCounter()
	points := make([]GeoPoint, 0)
	t.Each(func(_ int, r Record) {
		if r.ReportType != "" {
			byType.add(CategoryLabel(lang, r.ReportType))
		}
		if r.Status != "" {
			byStatus.add(StatusLabel(lang, r.Status))
		}
		if r.HasCoordinates() {
			points = append(points, GeoPoint{Latitude: *r.Latitude, Longitude: *r.Longitude})
		}
	})
	return Composition{
		DistributionByType:   byType.series,
		DistributionByStatus: byStatus.series,
		GeoPoints:            points,
	}
}
