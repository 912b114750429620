package mapbook

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// --- Mocks ---

type mockCompleter struct {
	fn func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return m.fn(ctx, systemPrompt, userPrompt)
}

type mockGeocoder struct {
	locations map[string]Location
}

func (m *mockGeocoder) Geocode(_ context.Context, address string) (Location, error) {
	loc, ok := m.locations[address]
	if !ok {
		return Location{}, errors.New("address not found")
	}
	return loc, nil
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, lat, lon float64) (Location, error) {
	return Location{Latitude: lat, Longitude: lon, Address: "somewhere"}, nil
}

// --- Tests ---

func TestNew_NoCompleter(t *testing.T) {
	_, err := New(WithFreeGeocoder("test-agent"))
	if err == nil {
		t.Fatal("expected error when no completion provider configured")
	}
}

func TestNew_NoGeocoderCredentials(t *testing.T) {
	_, err := New(WithCompletion("key", "deepseek-chat"))
	if err == nil {
		t.Fatal("expected error when free backend has no user agent")
	}
}

func TestNew_CustomProviders(t *testing.T) {
	c, err := New(
		WithCompleter(&mockCompleter{fn: func(_ context.Context, _, _ string) (string, error) {
			return "", nil
		}}),
		WithGeocoder(&mockGeocoder{}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil {
		t.Fatal("client is nil")
	}
}

func TestClient_Process(t *testing.T) {
	completer := &mockCompleter{fn: func(_ context.Context, _, userPrompt string) (string, error) {
		// Extraction user prompts carry the fenced-block instructions;
		// segmentation user prompts carry the span delimiter instead.
		if !strings.Contains(userPrompt, "```event") {
			return "The siege began in Paris.\n------\nLater we reached Tokyo.", nil
		}
		return "```event\n" +
			`{"event_title": "Event", "event_type": "travel", "event_content": "c", "keys": ["k"], "address": "Paris, France"}` +
			"\n```", nil
	}}
	geocoder := &mockGeocoder{locations: map[string]Location{
		"Paris, France": {Latitude: 48.8566, Longitude: 2.3522, Address: "Paris, France"},
	}}

	c, err := New(
		WithCompleter(completer),
		WithGeocoder(geocoder),
		WithGeocodeDelay(0),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := c.Process(context.Background(), "The siege began in Paris. Later we reached Tokyo.")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Segments != 2 {
		t.Errorf("segments = %d, want 2", res.Segments)
	}
	if len(res.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(res.Events))
	}
	if res.Events[0].Latitude != 48.8566 {
		t.Errorf("latitude = %f", res.Events[0].Latitude)
	}
}

func TestClient_MapAndExports(t *testing.T) {
	c, err := New(
		WithCompleter(&mockCompleter{fn: func(_ context.Context, _, _ string) (string, error) {
			return "", nil
		}}),
		WithGeocoder(&mockGeocoder{}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	events := []Event{
		{Seq: 1, Title: "A", Latitude: 48.8566, Longitude: 2.3522},
		{Seq: 2, Title: "B", Latitude: 35.6762, Longitude: 139.6503},
	}

	markers := c.Markers(events)
	if len(markers) != 2 {
		t.Errorf("markers = %d", len(markers))
	}

	route := c.Route(events)
	if len(route.Points) != 2 || len(route.Arrows) != 1 {
		t.Errorf("route = %+v", route)
	}

	geojson, err := c.GeoJSON(events)
	if err != nil {
		t.Fatalf("GeoJSON: %v", err)
	}
	if !strings.Contains(string(geojson), "FeatureCollection") {
		t.Error("geojson missing FeatureCollection")
	}

	archive, err := c.Shapefile(events, "")
	if err != nil {
		t.Fatalf("Shapefile: %v", err)
	}
	if len(archive) == 0 {
		t.Error("empty shapefile archive")
	}

	if _, err := c.Shapefile(nil, ""); err == nil {
		t.Error("expected error for empty shapefile export")
	}
}

func TestGeocoderAdapter(t *testing.T) {
	adapter := &geocoderAdapter{inner: &mockGeocoder{locations: map[string]Location{
		"Paris": {Latitude: 48.8566, Longitude: 2.3522, Address: "Paris, France"},
	}}}

	loc, err := adapter.Geocode(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Address != "Paris, France" {
		t.Errorf("address = %q", loc.Address)
	}

	if _, err := adapter.Geocode(context.Background(), "Nowhere"); err == nil {
		t.Error("expected error for unknown address")
	}
}
