package usecases_test

import (
	"testing"

	"github.com/alandyousif/safar/internal/core/domain"
	"github.com/alandyousif/safar/internal/core/usecases"
)

func TestProjectMarkers_SkipsRowsWithoutCoordinates(t *testing.T) {
	itins := []domain.Itinerary{{
		Days: []domain.Day{{
			Label: "Day 1",
			Rows: []domain.Row{
				{Activity: "Has both", Latitude: coord(36.19), Longitude: coord(44.01)},
				{Activity: "Lat only", Latitude: coord(36.19)},
				{Activity: "Lon only", Longitude: coord(44.01)},
				{Activity: "Neither"},
			},
		}},
	}}

	markers := usecases.ProjectMarkers(itins)
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}
	if markers[0].Activity != "Has both" {
		t.Errorf("wrong row projected: %q", markers[0].Activity)
	}
}

func TestProjectMarkers_OrderAndIndices(t *testing.T) {
	itins := []domain.Itinerary{
		{Days: []domain.Day{
			{Label: "Day 1", Rows: []domain.Row{
				{Activity: "p0d0r0", Latitude: coord(1), Longitude: coord(1)},
				{Activity: "p0d0r1", Latitude: coord(2), Longitude: coord(2)},
			}},
			{Label: "Day 2", Rows: []domain.Row{
				{Activity: "p0d1r0", Latitude: coord(3), Longitude: coord(3)},
			}},
		}},
		{Days: []domain.Day{
			{Label: "Day 1", Rows: []domain.Row{
				{Activity: "p1d0r0", Latitude: coord(4), Longitude: coord(4)},
			}},
		}},
	}

	markers := usecases.ProjectMarkers(itins)
	want := []struct {
		activity  string
		dayIndex  int
		planIndex int
		dayLabel  string
	}{
		{"p0d0r0", 0, 0, "Day 1"},
		{"p0d0r1", 0, 0, "Day 1"},
		{"p0d1r0", 1, 0, "Day 2"},
		{"p1d0r0", 0, 1, "Day 1"},
	}
	if len(markers) != len(want) {
		t.Fatalf("expected %d markers, got %d", len(want), len(markers))
	}
	for i, w := range want {
		m := markers[i]
		if m.Activity != w.activity || m.DayIndex != w.dayIndex || m.PlanIndex != w.planIndex || m.DayLabel != w.dayLabel {
			t.Errorf("marker %d: got %+v, want %+v", i, m, w)
		}
	}
}

func TestFindMarker(t *testing.T) {
	markers := []domain.Marker{
		{Latitude: 36.19, Longitude: 44.01, Activity: "Citadel tour"},
		{Latitude: 35.56, Longitude: 45.43, Activity: "Cave hike"},
	}

	row := domain.Row{Activity: "Cave hike", Latitude: coord(35.56), Longitude: coord(45.43)}
	if i := usecases.FindMarker(markers, row); i != 1 {
		t.Errorf("expected index 1, got %d", i)
	}

	// Same coordinates, different activity: no match.
	row.Activity = "Different"
	if i := usecases.FindMarker(markers, row); i != -1 {
		t.Errorf("expected -1 for mismatched activity, got %d", i)
	}

	row = domain.Row{Activity: "Citadel tour"}
	if i := usecases.FindMarker(markers, row); i != -1 {
		t.Errorf("row without coordinates should never match, got %d", i)
	}
}

func TestDirectionsURL(t *testing.T) {
	m := domain.Marker{Latitude: 36.19, Longitude: 44.01}
	want := "https://www.google.com/maps/dir/?api=1&destination=36.19,44.01&travelmode=driving"
	if got := m.DirectionsURL(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
