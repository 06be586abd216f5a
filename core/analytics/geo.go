package analytics

import "github.com/golang/geo/s2"

const MaxGeoLevel = 30

type GeoCluster struct {
	Cell      string  `json:"cell"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Count     int     `json:"count"`
}

// GeoClusters groups points into S2 cells at level (0-30, clamped). Cells are
// listed in the order their first point appears; coordinates are cell centres.
func GeoClusters(points []GeoPoint, level int) []GeoCluster {
	if level < 0 {
		level = 0
	}
	if level > MaxGeoLevel {
		level = MaxGeoLevel
	}
	idx := map[s2.CellID]int{}
	out := make([]GeoCluster, 0)
	for _, p := range points {
		ll := s2.LatLngFromDegrees(p.Latitude, p.Longitude)
		if !ll.IsValid() {
			continue
		}
		cell := s2.CellIDFromLatLng(ll).Parent(level)
		if i, ok := idx[cell]; ok {
			out[i].Count++
			continue
		}
		center := cell.LatLng()
		idx[cell] = len(out)
		out = append(out, GeoCluster{
			Cell:      cell.ToToken(),
			Latitude:  center.Lat.Degrees(),
			Longitude: center.Lng.Degrees(),
			Count:     1,
		})
	}
	return out
}
