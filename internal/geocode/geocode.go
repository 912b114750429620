// Package geocode defines the address-resolution contract and selects the
// concrete backend from configuration.
package geocode

import (
	"context"
	"fmt"
	"time"

	"github.com/mapbook/mapbook/internal/domain"
	"github.com/mapbook/mapbook/internal/geocode/baidu"
	"github.com/mapbook/mapbook/internal/geocode/nominatim"
)

// Geocoder resolves free-text addresses to coordinates and back.
// Implementations perform exactly one lookup attempt per call; retry and
// pacing policy belongs to the caller. Lookups return
// domain.ErrAddressNotFound when nothing matches (expected, non-fatal) and
// domain.ErrGeocodeService on backend failures.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Location, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Location, error)
}

// Supported backend names.
const (
	BackendFree  = "free"
	BackendBaidu = "baidu"
)

// Compile-time checks: both backends implement Geocoder.
var (
	_ Geocoder = (*nominatim.Geocoder)(nil)
	_ Geocoder = (*baidu.Geocoder)(nil)
)

// Config selects and parameterizes the backend. The backend is fixed for the
// resolver's lifetime.
type Config struct {
	Backend   string
	UserAgent string // client identifier, required by the free backend
	APIKey    string // required by the commercial backend
	BaseURL   string // optional endpoint override
	Timeout   time.Duration
}

// New constructs the configured backend. Returns domain.ErrConfiguration for
// an unknown backend name or a missing required credential, before any
// lookup is attempted.
func New(cfg Config) (Geocoder, error) {
	switch cfg.Backend {
	case BackendFree, "":
		return nominatim.New(nominatim.Config{
			UserAgent: cfg.UserAgent,
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.Timeout,
		})
	case BackendBaidu:
		return baidu.New(baidu.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", domain.ErrConfiguration, cfg.Backend)
	}
}
