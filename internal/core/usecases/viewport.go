package usecases

import (
	"math"

	"github.com/alandyousif/safar/internal/core/domain"
	"github.com/alandyousif/safar/internal/pkg/geospatial"
)

// Viewport defaults. The fallback center is shown before any plan has
// markers; the zoom cap keeps a single marker from zooming in arbitrarily
// close.
const (
	FallbackCenterLat = 36.2
	FallbackCenterLon = 44.0
	FallbackZoom      = 12
	MaxZoom           = 16
	paddingMeters     = 250.0
)

// ComputeViewport derives the map region for the current marker list. An
// empty list yields the fixed fallback center; otherwise the result is the
// padded bounding box enclosing every marker, with the zoom estimate capped
// at MaxZoom. The computation is idempotent and holds no state, so it can be
// re-run whenever the marker list changes identity.
func ComputeViewport(markers []domain.Marker) domain.Viewport {
	if len(markers) == 0 {
		return domain.Viewport{
			Center:   domain.GeoPoint{Lat: FallbackCenterLat, Lon: FallbackCenterLon},
			Zoom:     FallbackZoom,
			Fallback: true,
		}
	}

	minLat, maxLat := markers[0].Latitude, markers[0].Latitude
	minLon, maxLon := markers[0].Longitude, markers[0].Longitude
	for _, m := range markers[1:] {
		minLat = math.Min(minLat, m.Latitude)
		maxLat = math.Max(maxLat, m.Latitude)
		minLon = math.Min(minLon, m.Longitude)
		maxLon = math.Max(maxLon, m.Longitude)
	}

	latDelta, lonDelta := geospatial.PadDeltas((minLat+maxLat)/2, paddingMeters)
	bounds := domain.Bounds{
		SouthWest: domain.GeoPoint{Lat: minLat - latDelta, Lon: minLon - lonDelta},
		NorthEast: domain.GeoPoint{Lat: maxLat + latDelta, Lon: maxLon + lonDelta},
	}

	return domain.Viewport{
		Bounds: &bounds,
		Center: bounds.Center(),
		Zoom:   zoomForBounds(bounds),
	}
}

// zoomForBounds estimates a Web-Mercator zoom level from the diagonal span of
// the box, clamped to [3, MaxZoom]. A tight span (one marker plus padding)
// lands on the cap.
func zoomForBounds(b domain.Bounds) int {
	diagonal := geospatial.Haversine(
		b.SouthWest.Lat, b.SouthWest.Lon,
		b.NorthEast.Lat, b.NorthEast.Lon,
	)
	if diagonal < 1 {
		return MaxZoom
	}

	// Rough Web-Mercator fit: world circumference over the diagonal span.
	zoom := int(math.Floor(math.Log2(40075016.0 / diagonal)))
	if zoom > MaxZoom {
		zoom = MaxZoom
	}
	if zoom < 3 {
		zoom = 3
	}
	return zoom
}
