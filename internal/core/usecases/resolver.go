package usecases

import "github.com/alandyousif/safar/internal/core/domain"

// ResolveLocations merges a geocoding lookup into itinerary rows. For each
// row, in priority order: a lookup entry whose key matches the row's
// normalized location name supplies the coordinates (whatever its found
// flag says); otherwise pre-existing coordinates are kept; otherwise the
// coordinates stay unset. Rows without a location name never match.
//
// The function is pure: inputs are never mutated and the result is a deep
// copy with only coordinate fields changed. Resolving twice with the same
// lookup yields the same result as resolving once.
func ResolveLocations(itins []domain.Itinerary, entries []domain.LocationLookup) []domain.Itinerary {
	if len(itins) == 0 {
		return nil
	}

	lookup := make(map[string]domain.LocationLookup, len(entries))
	for _, entry := range entries {
		lookup[entry.Key()] = entry
	}

	resolved := make([]domain.Itinerary, len(itins))
	for i, it := range itins {
		out := domain.Itinerary{Code: it.Code, Days: make([]domain.Day, len(it.Days))}
		for d, day := range it.Days {
			rows := make([]domain.Row, len(day.Rows))
			for r, row := range day.Rows {
				rows[r] = resolveRow(row, lookup)
			}
			out.Days[d] = domain.Day{Label: day.Label, Rows: rows}
		}
		resolved[i] = out
	}
	return resolved
}

func resolveRow(row domain.Row, lookup map[string]domain.LocationLookup) domain.Row {
	out := row
	out.Latitude = copyCoord(row.Latitude)
	out.Longitude = copyCoord(row.Longitude)

	key := row.LocationKey()
	if key == "" {
		return out
	}
	if entry, ok := lookup[key]; ok {
		lat, lon := entry.Latitude, entry.Longitude
		out.Latitude, out.Longitude = &lat, &lon
	}
	return out
}

func copyCoord(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
