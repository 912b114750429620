// Package baidu implements the commercial, API-key geocoding backend
// (Baidu Maps geocoding v3).
package baidu

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

const defaultBaseURL = "https://api.map.baidu.com"

// Config holds the commercial backend settings.
type Config struct {
	APIKey  string
	BaseURL string // override for tests
	Timeout time.Duration
}

// Geocoder resolves addresses via the Baidu geocoding v3 API.
type Geocoder struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New creates a Baidu geocoder. Fails when no API key is given.
func New(cfg Config) (*Geocoder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: commercial backend requires an API key", domain.ErrConfiguration)
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
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type geocodeResponse struct {
	Status  int    `json:"status"`
	Message string `json:"msg"`
	Result  *struct {
		Location struct {
			Lng float64 `json:"lng"`
			Lat float64 `json:"lat"`
		} `json:"location"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"result"`
}

// Geocode resolves a free-text address to its single best match.
func (g *Geocoder) Geocode(ctx context.Context, address string) (domain.Location, error) {
	q := url.Values{
		"address": {address},
		"output":  {"json"},
		"ak":      {g.apiKey},
	}

	var resp geocodeResponse
	if err := g.get(ctx, "/geocoding/v3/", q, &resp); err != nil {
		return domain.Location{}, err
	}
	if resp.Status != 0 {
		metrics.GeocodeRequestsTotal.WithLabelValues("baidu", "error").Inc()
		return domain.Location{}, fmt.Errorf("%w: baidu status %d: %s", domain.ErrGeocodeService, resp.Status, resp.Message)
	}
	if resp.Result == nil {
		return domain.Location{}, fmt.Errorf("%w: %q", domain.ErrAddressNotFound, address)
	}

	// The forward endpoint returns no normalized address; the caller keeps
	// the input address.
	return domain.Location{
		Latitude:  resp.Result.Location.Lat,
		Longitude: resp.Result.Location.Lng,
	}, nil
}

// ReverseGeocode resolves coordinates to a formatted address.
func (g *Geocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Location, error) {
	q := url.Values{
		"location":  {strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)},
		"coordtype": {"wgs84ll"},
		"output":    {"json"},
		"ak":        {g.apiKey},
	}

	var resp geocodeResponse
	if err := g.get(ctx, "/reverse_geocoding/v3/", q, &resp); err != nil {
		return domain.Location{}, err
	}
	if resp.Status != 0 {
		return domain.Location{}, fmt.Errorf("%w: baidu status %d: %s", domain.ErrGeocodeService, resp.Status, resp.Message)
	}
	if resp.Result == nil || resp.Result.FormattedAddress == "" {
		return domain.Location{}, fmt.Errorf("%w: (%f, %f)", domain.ErrAddressNotFound, lat, lon)
	}

	return domain.Location{
		Latitude:  resp.Result.Location.Lat,
		Longitude: resp.Result.Location.Lng,
		Address:   resp.Result.FormattedAddress,
	}, nil
}

func (g *Geocoder) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrGeocodeService, err)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues("baidu", "error").Inc()
		return fmt.Errorf("%w: %v", domain.ErrGeocodeService, err)
	}
	defer resp.Body.Close()

	metrics.GeocodeRequestDuration.WithLabelValues("baidu").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.GeocodeRequestsTotal.WithLabelValues("baidu", "error").Inc()
		return fmt.Errorf("%w: baidu returned %d", domain.ErrGeocodeService, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues("baidu", "error").Inc()
		return fmt.Errorf("%w: decode response: %v", domain.ErrGeocodeService, err)
	}

	metrics.GeocodeRequestsTotal.WithLabelValues("baidu", "success").Inc()
	return nil
}
