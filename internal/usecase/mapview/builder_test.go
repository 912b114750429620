package mapview

import (
	"math"
	"strings"
	"testing"

	"github.com/mapbook/mapbook/internal/domain"
)

func events(n int) []domain.GeoEvent {
	out := make([]domain.GeoEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.GeoEvent{
			Seq:      i + 1,
			Title:    "event",
			Latitude: float64(i * 10), Longitude: float64(i * 20),
		})
	}
	return out
}

func TestMarkers_PopupFormat(t *testing.T) {
	evs := []domain.GeoEvent{{
		Title:     "Siege of Paris",
		Type:      "historical",
		Content:   "The city was besieged.",
		Keywords:  []string{"siege", "war"},
		Latitude:  48.85,
		Longitude: 2.35,
	}}

	markers := Markers(evs)
	if len(markers) != 1 {
		t.Fatalf("markers = %d, want 1", len(markers))
	}
	m := markers[0]
	if m.Latitude != 48.85 || m.Longitude != 2.35 {
		t.Errorf("marker at (%f, %f)", m.Latitude, m.Longitude)
	}
	for _, want := range []string{"<b>Siege of Paris</b>", "Type: historical", "Content: The city was besieged.", "Keywords: siege, war"} {
		if !strings.Contains(m.Popup, want) {
			t.Errorf("popup missing %q: %q", want, m.Popup)
		}
	}
}

func TestBuildRoute_TooFewEvents(t *testing.T) {
	for _, n := range []int{0, 1} {
		r := BuildRoute(events(n))
		if len(r.Points) != 0 || len(r.Arrows) != 0 {
			t.Errorf("route for %d events should be empty, got %d points, %d arrows", n, len(r.Points), len(r.Arrows))
		}
	}
}

func TestBuildRoute_PointsAndArrows(t *testing.T) {
	evs := []domain.GeoEvent{
		{Latitude: 48.8566, Longitude: 2.3522},  // Paris
		{Latitude: 35.6762, Longitude: 139.6503}, // Tokyo
	}

	r := BuildRoute(evs)
	if len(r.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(r.Points))
	}
	if len(r.Arrows) != 1 {
		t.Fatalf("arrows = %d, want 1", len(r.Arrows))
	}

	arrow := r.Arrows[0]
	wantLat := (48.8566 + 35.6762) / 2
	wantLon := (2.3522 + 139.6503) / 2
	if math.Abs(arrow.Latitude-wantLat) > 1e-9 || math.Abs(arrow.Longitude-wantLon) > 1e-9 {
		t.Errorf("arrow at (%f, %f), want midpoint (%f, %f)", arrow.Latitude, arrow.Longitude, wantLat, wantLon)
	}

	wantBearing := -math.Atan2(35.6762-48.8566, 139.6503-2.3522) * 180 / math.Pi
	if math.Abs(arrow.Bearing-wantBearing) > 1e-9 {
		t.Errorf("bearing = %f, want %f", arrow.Bearing, wantBearing)
	}

	if r.LengthMeters <= 0 {
		t.Error("route length must be positive")
	}
}

func TestBuildRoute_ArrowCountScales(t *testing.T) {
	r := BuildRoute(events(5))
	if len(r.Points) != 5 || len(r.Arrows) != 4 {
		t.Errorf("got %d points, %d arrows, want 5 and 4", len(r.Points), len(r.Arrows))
	}
}
