package domain

import "fmt"

// Marker is the geospatial projection of a Row, used for map display.
// Markers are derived values: rebuilt whenever the itinerary set changes and
// never mutated in place. DayIndex and PlanIndex tie a marker back to its
// source row; consumers cross-reference a displayed activity with its marker
// by equality of (latitude, longitude, activity). That triple is not a strong
// primary key — two identical activities at the same coordinates are
// indistinguishable — but it is the matching contract the renderers rely on.
type Marker struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Activity  string  `json:"activity"`
	Time      string  `json:"time"`
	Location  string  `json:"location"`
	Notes     string  `json:"notes,omitempty"`
	DayLabel  string  `json:"day"`
	DayIndex  int     `json:"day_index"`
	PlanIndex int     `json:"plan_index"`
}

// Matches reports whether this marker corresponds to the given row under the
// (latitude, longitude, activity) matching contract.
func (m Marker) Matches(r Row) bool {
	if !r.HasCoordinates() {
		return false
	}
	return m.Latitude == *r.Latitude && m.Longitude == *r.Longitude && m.Activity == r.Activity
}

// DirectionsURL returns an external map-directions link for this marker.
func (m Marker) DirectionsURL() string {
	return fmt.Sprintf(
		"https://www.google.com/maps/dir/?api=1&destination=%v,%v&travelmode=driving",
		m.Latitude, m.Longitude,
	)
}
