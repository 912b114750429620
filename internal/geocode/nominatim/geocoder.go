// Package nominatim implements the free, rate-limited OSM geocoding backend.
// Nominatim's usage policy requires a client identifier (User-Agent) and at
// most one request per second; pacing is the caller's responsibility.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mapbook/mapbook/internal/domain"
	"github.com/mapbook/mapbook/internal/metrics"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Config holds the free backend settings.
type Config struct {
	UserAgent string // client identifier, required by the usage policy
	BaseURL   string // override for tests and self-hosted instances
	Timeout   time.Duration
}

// Geocoder resolves addresses via the Nominatim search API. One lookup
// attempt per call; no internal retries.
type Geocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// New creates a Nominatim geocoder. Fails when no client identifier is given.
func New(cfg Config) (*Geocoder, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("%w: free backend requires a client identifier", domain.ErrConfiguration)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Geocoder{
		baseURL:   baseURL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// place mirrors the fields we consume from a Nominatim response. Coordinates
// arrive as strings.
type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Geocode resolves a free-text address to its single best match.
func (g *Geocoder) Geocode(ctx context.Context, address string) (domain.Location, error) {
	q := url.Values{
		"q":      {address},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}

	var results []place
	if err := g.get(ctx, "/search", q, &results); err != nil {
		return domain.Location{}, err
	}
	if len(results) == 0 {
		return domain.Location{}, fmt.Errorf("%w: %q", domain.ErrAddressNotFound, address)
	}
	return results[0].toLocation()
}

// ReverseGeocode resolves coordinates to the nearest address.
func (g *Geocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Location, error) {
	q := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format": {"jsonv2"},
	}

	var result place
	if err := g.get(ctx, "/reverse", q, &result); err != nil {
		return domain.Location{}, err
	}
	// The reverse endpoint reports "Unable to geocode" inline instead of an
	// empty result set.
	if result.Error != "" || result.DisplayName == "" {
		return domain.Location{}, fmt.Errorf("%w: (%f, %f)", domain.ErrAddressNotFound, lat, lon)
	}
	return result.toLocation()
}

func (g *Geocoder) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrGeocodeService, err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues("free", "error").Inc()
		return fmt.Errorf("%w: %v", domain.ErrGeocodeService, err)
	}
	defer resp.Body.Close()

	metrics.GeocodeRequestDuration.WithLabelValues("free").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.GeocodeRequestsTotal.WithLabelValues("free", "error").Inc()
		return fmt.Errorf("%w: nominatim returned %d", domain.ErrGeocodeService, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues("free", "error").Inc()
		return fmt.Errorf("%w: decode response: %v", domain.ErrGeocodeService, err)
	}

	metrics.GeocodeRequestsTotal.WithLabelValues("free", "success").Inc()
	return nil
}

func (p place) toLocation() (domain.Location, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return domain.Location{}, fmt.Errorf("%w: bad latitude %q", domain.ErrGeocodeService, p.Lat)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return domain.Location{}, fmt.Errorf("%w: bad longitude %q", domain.ErrGeocodeService, p.Lon)
	}
	return domain.Location{Latitude: lat, Longitude: lon, Address: p.DisplayName}, nil
}
