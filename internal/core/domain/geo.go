package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	SouthWest GeoPoint `json:"south_west"`
	NorthEast GeoPoint `json:"north_east"`
}

// Center returns the midpoint of the box.
func (b Bounds) Center() GeoPoint {
	return GeoPoint{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lon: (b.SouthWest.Lon + b.NorthEast.Lon) / 2,
	}
}

// Viewport is the map region a renderer should show. When Bounds is nil the
// viewport is a fallback center used before any plan has markers; otherwise
// Bounds encloses every marker with padding already applied, and Zoom is the
// capped zoom estimate for that span.
type Viewport struct {
	Bounds   *Bounds  `json:"bounds,omitempty"`
	Center   GeoPoint `json:"center"`
	Zoom     int      `json:"zoom"`
	Fallback bool     `json:"fallback"`
}
