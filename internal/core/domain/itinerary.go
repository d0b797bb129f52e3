package domain

import "strings"

// Row is one activity entry within a day of an itinerary. Coordinates are
// optional until location resolution has run; a row whose coordinates are
// still unset (or not finite) is never shown on the map.
type Row struct {
	Activity  string   `json:"activity"`
	Location  string   `json:"location"`
	Time      string   `json:"time"`
	Notes     string   `json:"notes,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	ImageURL  string   `json:"image_url,omitempty"`
	SourceURL string   `json:"source_url,omitempty"`
}

// LocationKey returns the normalized key used to join this row against a
// geocoding lookup: the location name trimmed and lowercased.
func (r Row) LocationKey() string {
	return strings.ToLower(strings.TrimSpace(r.Location))
}

// HasCoordinates reports whether both coordinates are set.
func (r Row) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Day groups the rows planned for one day.
type Day struct {
	Label string `json:"day"`
	Rows  []Row  `json:"rows"`
}

// Itinerary is the canonical, shape-independent representation of one travel
// plan. Days preserve generation order. An Itinerary is immutable once
// produced: a new normalization replaces it wholesale.
type Itinerary struct {
	Code string `json:"code,omitempty"`
	Days []Day  `json:"days"`
}

// DisplayDays returns at most max days for display. Markers are still
// projected from every day; only the itinerary surface is capped.
func (it Itinerary) DisplayDays(max int) []Day {
	if max <= 0 || len(it.Days) <= max {
		return it.Days
	}
	return it.Days[:max]
}

// LocationLookup is one geocoding result, keyed by normalized location name.
// Several rows may share a key; resolution is a many-to-one join.
type LocationLookup struct {
	Location  string  `json:"location"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Found     bool    `json:"found"`
}

// Key returns the normalized join key for this entry.
func (l LocationLookup) Key() string {
	return strings.ToLower(strings.TrimSpace(l.Location))
}
