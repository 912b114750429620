package mapbook

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mapbook/mapbook/internal/geocode"
)

// Completer generates a chat completion for a system and user prompt pair.
// Implement it to plug in a custom LLM provider.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Geocoder resolves addresses to coordinates and back. Implement it to plug
// in a custom geocoding backend.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Location, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (Location, error)
}

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	completionAPIKey  string
	completionBaseURL string
	completionModel   string
	completer         Completer

	geocode  geocode.Config
	geocoder Geocoder

	language        string
	chunkSize       int
	geocodeDelay    time.Duration
	geocodeDelaySet bool

	logger *zap.Logger
}

// WithCompletion configures an OpenAI-compatible completion provider.
func WithCompletion(apiKey, model string) Option {
	return func(c *clientConfig) {
		c.completionAPIKey = apiKey
		c.completionModel = model
	}
}

// WithCompletionBaseURL points the completion client at a non-OpenAI
// endpoint (DeepSeek, a local server).
func WithCompletionBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.completionBaseURL = url
	}
}

// WithCompleter plugs in a custom completion provider.
func WithCompleter(completer Completer) Option {
	return func(c *clientConfig) {
		c.completer = completer
	}
}

// WithFreeGeocoder uses the free geocoding backend. userAgent identifies the
// application as the backend's usage policy requires.
func WithFreeGeocoder(userAgent string) Option {
	return func(c *clientConfig) {
		c.geocode.Backend = geocode.BackendFree
		c.geocode.UserAgent = userAgent
	}
}

// WithBaiduGeocoder uses the commercial Baidu backend.
func WithBaiduGeocoder(apiKey string) Option {
	return func(c *clientConfig) {
		c.geocode.Backend = geocode.BackendBaidu
		c.geocode.APIKey = apiKey
	}
}

// WithGeocoderBaseURL overrides the geocoding endpoint.
func WithGeocoderBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.geocode.BaseURL = url
	}
}

// WithGeocoder plugs in a custom geocoding backend.
func WithGeocoder(g Geocoder) Option {
	return func(c *clientConfig) {
		c.geocoder = g
	}
}

// WithLanguage sets the address output language (default English).
func WithLanguage(language string) Option {
	return func(c *clientConfig) {
		if language != "" {
			c.language = language
		}
	}
}

// WithChunkSize overrides the per-request text chunk size.
func WithChunkSize(n int) Option {
	return func(c *clientConfig) {
		c.chunkSize = n
	}
}

// WithGeocodeDelay overrides the pause between geocode lookups. Zero
// disables pacing; use only with a commercial backend.
func WithGeocodeDelay(d time.Duration) Option {
	return func(c *clientConfig) {
		c.geocodeDelay = d
		c.geocodeDelaySet = true
	}
}

// WithLogger attaches a zap logger to all pipeline stages.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
