package usecases_test

import (
	"reflect"
	"testing"

	"github.com/alandyousif/safar/internal/core/domain"
	"github.com/alandyousif/safar/internal/core/usecases"
)

func coord(v float64) *float64 { return &v }

func TestResolveLocations_FuzzyKeyMatch(t *testing.T) {
	itins := []domain.Itinerary{{
		Code: "A1",
		Days: []domain.Day{{
			Label: "Day 1",
			Rows: []domain.Row{
				{Activity: "City walk", Location: " Baghdad "},
				{Activity: "Lunch", Location: "unknown place"},
			},
		}},
	}}
	entries := []domain.LocationLookup{
		{Location: "baghdad", Latitude: 33.31, Longitude: 44.36, Found: true},
	}

	resolved := usecases.ResolveLocations(itins, entries)

	r0 := resolved[0].Days[0].Rows[0]
	if r0.Latitude == nil || *r0.Latitude != 33.31 || r0.Longitude == nil || *r0.Longitude != 44.36 {
		t.Errorf("whitespace/case variant should match lookup, got %v/%v", r0.Latitude, r0.Longitude)
	}
	r1 := resolved[0].Days[0].Rows[1]
	if r1.Latitude != nil || r1.Longitude != nil {
		t.Errorf("unmatched row should stay without coordinates")
	}
}

func TestResolveLocations_LookupOverridesInline(t *testing.T) {
	itins := []domain.Itinerary{{
		Days: []domain.Day{{Rows: []domain.Row{
			{Location: "Erbil Citadel", Latitude: coord(1), Longitude: coord(2)},
		}}},
	}}
	entries := []domain.LocationLookup{
		{Location: "Erbil Citadel", Latitude: 36.19, Longitude: 44.01, Found: false},
	}

	resolved := usecases.ResolveLocations(itins, entries)
	row := resolved[0].Days[0].Rows[0]
	if *row.Latitude != 36.19 || *row.Longitude != 44.01 {
		t.Errorf("matched entry should override inline coords regardless of found flag, got %v/%v",
			*row.Latitude, *row.Longitude)
	}
}

func TestResolveLocations_KeepsExistingWhenUnmatched(t *testing.T) {
	itins := []domain.Itinerary{{
		Days: []domain.Day{{Rows: []domain.Row{
			{Location: "Somewhere", Latitude: coord(35.0), Longitude: coord(45.0)},
			{Activity: "No location", Latitude: coord(34.0), Longitude: coord(43.0)},
		}}},
	}}

	resolved := usecases.ResolveLocations(itins, nil)
	for i, row := range resolved[0].Days[0].Rows {
		if row.Latitude == nil || row.Longitude == nil {
			t.Fatalf("row %d: pre-existing coordinates should be kept", i)
		}
	}
}

func TestResolveLocations_PureAndIdempotent(t *testing.T) {
	itins := []domain.Itinerary{{
		Days: []domain.Day{{Rows: []domain.Row{
			{Location: "Erbil", Latitude: coord(1), Longitude: coord(1)},
		}}},
	}}
	entries := []domain.LocationLookup{{Location: "erbil", Latitude: 36.19, Longitude: 44.01}}

	once := usecases.ResolveLocations(itins, entries)
	twice := usecases.ResolveLocations(once, entries)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("resolving twice should equal resolving once")
	}

	// Input must be untouched, including the pointed-to floats.
	if *itins[0].Days[0].Rows[0].Latitude != 1 {
		t.Errorf("input mutated: latitude changed to %v", *itins[0].Days[0].Rows[0].Latitude)
	}
	*once[0].Days[0].Rows[0].Latitude = 99
	if *itins[0].Days[0].Rows[0].Latitude != 1 {
		t.Errorf("result aliases input coordinate storage")
	}
}
