package usecases

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/alandyousif/safar/internal/core/domain"
)

// RawShape identifies which structural form a planner payload matched.
type RawShape int

const (
	// ShapeUnknown payloads normalize to an empty itinerary list. Not an
	// error: it signals "no data yet".
	ShapeUnknown RawShape = iota
	// ShapeCanonicalList is a JSON array of plan objects.
	ShapeCanonicalList
	// ShapeSingle is one plan object carrying a "days" or "data" field.
	ShapeSingle
	// ShapeDayMap is an object whose keys are day labels and whose values are
	// activity arrays. Coordinates come inline, so this shape skips the
	// location-resolution step.
	ShapeDayMap
)

// NeedsLocationResolution reports whether rows of this shape rely on the
// separate geocoding lookup for their coordinates.
func (s RawShape) NeedsLocationResolution() bool {
	return s == ShapeCanonicalList || s == ShapeSingle
}

// NormalizeItineraries converts a raw planner payload into the canonical
// itinerary list. Shape predicates are tried in fixed priority order: array,
// single object with days/data, day-map, then fallback-empty. Normalization
// is deterministic and makes no external calls.
func NormalizeItineraries(raw []byte) ([]domain.Itinerary, RawShape) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ShapeUnknown
	}

	switch v := payload.(type) {
	case []any:
		var itins []domain.Itinerary
		for _, elem := range v {
			obj, ok := elem.(map[string]any)
			if !ok {
				continue
			}
			itins = append(itins, itineraryFromPlan(obj))
		}
		return itins, ShapeCanonicalList
	case map[string]any:
		if _, ok := v["days"]; ok {
			return []domain.Itinerary{itineraryFromPlan(v)}, ShapeSingle
		}
		if _, ok := v["data"]; ok {
			return []domain.Itinerary{itineraryFromPlan(v)}, ShapeSingle
		}
		if it, ok := itineraryFromDayMap(v); ok {
			return []domain.Itinerary{it}, ShapeDayMap
		}
	}
	return nil, ShapeUnknown
}

// itineraryFromPlan builds one canonical itinerary from a plan object,
// unwrapping an optional "data" envelope.
func itineraryFromPlan(obj map[string]any) domain.Itinerary {
	it := domain.Itinerary{
		Code: firstString(obj, "code_chat", "code"),
	}

	body := obj
	if data, ok := obj["data"].(map[string]any); ok {
		body = data
	}
	days, _ := body["days"].([]any)
	for _, elem := range days {
		dayObj, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		it.Days = append(it.Days, dayFromObject(dayObj, len(it.Days)))
	}
	return it
}

func dayFromObject(obj map[string]any, index int) domain.Day {
	day := domain.Day{Label: firstString(obj, "day")}
	if day.Label == "" {
		day.Label = fmt.Sprintf("Day %d", index+1)
	}
	rows, _ := obj["rows"].([]any)
	for _, elem := range rows {
		rowObj, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		day.Rows = append(day.Rows, rowFromActivity(rowObj))
	}
	return day
}

// itineraryFromDayMap handles payloads keyed directly by day label. Keys are
// sorted so normalization stays deterministic regardless of map order.
func itineraryFromDayMap(obj map[string]any) (domain.Itinerary, bool) {
	var labels []string
	for key, value := range obj {
		if _, ok := value.([]any); ok {
			labels = append(labels, key)
		}
	}
	if len(labels) == 0 {
		return domain.Itinerary{}, false
	}
	sort.Strings(labels)

	var it domain.Itinerary
	for _, label := range labels {
		day := domain.Day{Label: label}
		for _, elem := range obj[label].([]any) {
			rowObj, ok := elem.(map[string]any)
			if !ok {
				continue
			}
			day.Rows = append(day.Rows, rowFromActivity(rowObj))
		}
		it.Days = append(it.Days, day)
	}
	return it, true
}

// rowFromActivity reads one activity object, applying the field aliasing
// shared by every payload shape: activity from activity/name/title, location
// from location/name falling back to the activity name, latitude from
// latitude/lat (plus the backend's recurring misspelling), longitude from
// longitude/lng/lon/long.
func rowFromActivity(obj map[string]any) domain.Row {
	row := domain.Row{
		Activity:  firstString(obj, "activity", "name", "title"),
		Location:  firstString(obj, "location", "name"),
		Time:      firstString(obj, "time"),
		Notes:     firstString(obj, "notes", "description"),
		ImageURL:  firstString(obj, "image_url", "imageUrl"),
		SourceURL: firstString(obj, "source_url", "sourceUrl"),
	}
	if row.Location == "" {
		row.Location = row.Activity
	}
	row.Latitude = firstNumber(obj, "latitude", "lat", "latitutde")
	row.Longitude = firstNumber(obj, "longitude", "lng", "lon", "long")
	return row
}

// firstString returns the first alias present with a non-empty string value.
func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstNumber returns the first alias that coerces to a finite float, or nil.
// Backends emit coordinates both as JSON numbers and as numeric strings.
func firstNumber(obj map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		value, ok := obj[key]
		if !ok {
			continue
		}
		if f, ok := coerceFloat(value); ok {
			return &f
		}
	}
	return nil
}

func coerceFloat(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
