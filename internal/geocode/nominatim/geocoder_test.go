package nominatim

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mapbook/mapbook/internal/domain"
)

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) *Geocoder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := New(Config{UserAgent: "mapbook-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestNew_RequiresUserAgent(t *testing.T) {
	_, err := New(Config{})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestGeocode_Success(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != "mapbook-test" {
			t.Errorf("client identifier not sent, got %q", ua)
		}
		if q := r.URL.Query().Get("q"); q != "Paris, France" {
			t.Errorf("unexpected query %q", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"48.8566","lon":"2.3522","display_name":"Paris, Île-de-France, France"}]`))
	})

	loc, err := g.Geocode(context.Background(), "Paris, France")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if loc.Latitude != 48.8566 || loc.Longitude != 2.3522 {
		t.Errorf("unexpected coordinates (%f, %f)", loc.Latitude, loc.Longitude)
	}
	if loc.Address != "Paris, Île-de-France, France" {
		t.Errorf("unexpected normalized address %q", loc.Address)
	}
}

func TestGeocode_NotFound(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := g.Geocode(context.Background(), "Nowhereville, Atlantis")
	if !errors.Is(err, domain.ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got %v", err)
	}
}

func TestGeocode_ServiceError(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := g.Geocode(context.Background(), "Paris")
	if !errors.Is(err, domain.ErrGeocodeService) {
		t.Fatalf("expected ErrGeocodeService, got %v", err)
	}
}

func TestGeocode_UnreachableBackend(t *testing.T) {
	g, err := New(Config{UserAgent: "mapbook-test", BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = g.Geocode(context.Background(), "Paris")
	if !errors.Is(err, domain.ErrGeocodeService) {
		t.Fatalf("expected ErrGeocodeService, got %v", err)
	}
}

func TestReverseGeocode_Success(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"lat":"35.6762","lon":"139.6503","display_name":"Tokyo, Japan"}`))
	})

	loc, err := g.ReverseGeocode(context.Background(), 35.6762, 139.6503)
	if err != nil {
		t.Fatalf("ReverseGeocode: %v", err)
	}
	if loc.Address != "Tokyo, Japan" {
		t.Errorf("unexpected address %q", loc.Address)
	}
}

func TestReverseGeocode_UnableToGeocode(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	})

	_, err := g.ReverseGeocode(context.Background(), 0, 0)
	if !errors.Is(err, domain.ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got %v", err)
	}
}
