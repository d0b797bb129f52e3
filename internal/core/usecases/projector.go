package usecases

import (
	"math"

	"github.com/alandyousif/safar/internal/core/domain"
)

// ProjectMarkers flattens itineraries into the ordered marker list consumed
// by map renderers. Traversal order is plan index, then day index, then row
// order, so the output is stable for a given input. A row becomes exactly one
// marker iff both coordinates are finite; rows still awaiting geocoding are
// skipped silently.
func ProjectMarkers(itins []domain.Itinerary) []domain.Marker {
	var markers []domain.Marker
	for planIndex, it := range itins {
		for dayIndex, day := range it.Days {
			for _, row := range day.Rows {
				if !row.HasCoordinates() {
					continue
				}
				lat, lon := *row.Latitude, *row.Longitude
				if !isFinite(lat) || !isFinite(lon) {
					continue
				}
				markers = append(markers, domain.Marker{
					Latitude:  lat,
					Longitude: lon,
					Activity:  row.Activity,
					Time:      row.Time,
					Location:  row.Location,
					Notes:     row.Notes,
					DayLabel:  day.Label,
					DayIndex:  dayIndex,
					PlanIndex: planIndex,
				})
			}
		}
	}
	return markers
}

// FindMarker returns the index of the marker matching a row under the
// (latitude, longitude, activity) contract, or -1. Duplicate activities at
// identical coordinates resolve to the first marker in traversal order.
func FindMarker(markers []domain.Marker, row domain.Row) int {
	for i, m := range markers {
		if m.Matches(row) {
			return i
		}
	}
	return -1
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
