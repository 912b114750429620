// Package mapbook extracts geo-referenced events from narrative text and
// turns them into map artifacts. The Client wires the whole pipeline
// in-process: segmentation and extraction via a chat-completion provider,
// geocoding, and GeoJSON/shapefile export.
package mapbook

import (
	"context"
	"errors"
	"fmt"

	"github.com/mapbook/mapbook/internal/domain"
	"github.com/mapbook/mapbook/internal/geocode"
	openaiTransport "github.com/mapbook/mapbook/internal/transport/openai"
	"github.com/mapbook/mapbook/internal/usecase/export"
	extractuc "github.com/mapbook/mapbook/internal/usecase/extract"
	"github.com/mapbook/mapbook/internal/usecase/mapview"
	pipelineuc "github.com/mapbook/mapbook/internal/usecase/pipeline"
	segmentuc "github.com/mapbook/mapbook/internal/usecase/segment"
)

// Event is one geo-referenced narrative event.
type Event struct {
	Seq       int
	Title     string
	Type      string
	Content   string
	Keywords  []string
	Address   string
	Latitude  float64
	Longitude float64
}

// Skipped records a segment that produced no event and why.
type Skipped struct {
	Seq    int
	Reason string
}

// Result summarizes one extraction run.
type Result struct {
	Events   []Event
	Segments int
	Skipped  []Skipped
}

// Location is a resolved coordinate pair plus the backend's address.
type Location struct {
	Latitude  float64
	Longitude float64
	Address   string
}

// Marker is a renderable map point with a popup payload.
type Marker = mapview.Marker

// Route is the ordered polyline connecting events in narrative order.
type Route = mapview.Route

// Client is the mapbook SDK entry point.
type Client struct {
	pipeline *pipelineuc.Service
	geocoder pipelineGeocoder
	language string
}

type pipelineGeocoder interface {
	Geocode(ctx context.Context, address string) (domain.Location, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Location, error)
}

// New creates a mapbook Client.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{language: "English"}
	for _, o := range opts {
		o(cfg)
	}

	completer, err := buildCompleter(cfg)
	if err != nil {
		return nil, err
	}
	geocoder, err := buildGeocoder(cfg)
	if err != nil {
		return nil, err
	}

	p := pipelineuc.New(
		segmentuc.New(completer, cfg.logger),
		extractuc.New(completer, cfg.logger),
		geocoder,
		cfg.logger,
	)
	if cfg.chunkSize > 0 {
		p = p.WithChunkSize(cfg.chunkSize)
	}
	if cfg.geocodeDelaySet {
		p = p.WithGeocodeDelay(cfg.geocodeDelay)
	}

	return &Client{pipeline: p, geocoder: geocoder, language: cfg.language}, nil
}

func buildCompleter(cfg *clientConfig) (segmentuc.Completer, error) {
	if cfg.completer != nil {
		return cfg.completer, nil
	}
	if cfg.completionAPIKey == "" || cfg.completionModel == "" {
		return nil, errors.New("mapbook: completion provider required (use WithCompletion or WithCompleter)")
	}
	return openaiTransport.NewCompleter(&openaiTransport.Config{
		APIKey:  cfg.completionAPIKey,
		BaseURL: cfg.completionBaseURL,
		Model:   cfg.completionModel,
		Logger:  cfg.logger,
	}), nil
}

func buildGeocoder(cfg *clientConfig) (pipelineGeocoder, error) {
	if cfg.geocoder != nil {
		return &geocoderAdapter{inner: cfg.geocoder}, nil
	}
	g, err := geocode.New(cfg.geocode)
	if err != nil {
		return nil, fmt.Errorf("mapbook: %w", err)
	}
	return g, nil
}

// Process runs the extraction pipeline over the given text.
func (c *Client) Process(ctx context.Context, text string) (Result, error) {
	store := domain.NewEventStore()
	res, err := c.pipeline.Process(ctx, text, c.language, store)

	out := Result{Segments: res.Segments}
	out.Events = make([]Event, 0, len(res.Events))
	for _, ev := range res.Events {
		out.Events = append(out.Events, Event(ev))
	}
	for _, sk := range res.Skipped {
		out.Skipped = append(out.Skipped, Skipped(sk))
	}
	if err != nil {
		return out, fmt.Errorf("mapbook: process: %w", err)
	}
	return out, nil
}

// Markers builds one map marker per event, in narrative order.
func (c *Client) Markers(events []Event) []Marker {
	return mapview.Markers(toDomain(events))
}

// Route builds the connecting polyline with directional arrows.
func (c *Client) Route(events []Event) Route {
	return mapview.BuildRoute(toDomain(events))
}

// GeoJSON serializes events as a GeoJSON FeatureCollection.
func (c *Client) GeoJSON(events []Event) ([]byte, error) {
	data, err := export.GeoJSON(toDomain(events))
	if err != nil {
		return nil, fmt.Errorf("mapbook: %w", err)
	}
	return data, nil
}

// Shapefile packs events into a zipped point shapefile in the given CRS
// (WGS-84 when empty).
func (c *Client) Shapefile(events []Event, crs string) ([]byte, error) {
	data, err := export.Shapefile(toDomain(events), crs)
	if err != nil {
		return nil, fmt.Errorf("mapbook: %w", err)
	}
	return data, nil
}

// ReverseGeocode resolves coordinates back to an address.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (Location, error) {
	loc, err := c.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return Location{}, fmt.Errorf("mapbook: reverse geocode: %w", err)
	}
	return Location(loc), nil
}

func toDomain(events []Event) []domain.GeoEvent {
	out := make([]domain.GeoEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, domain.GeoEvent(ev))
	}
	return out
}

// geocoderAdapter wraps a public Geocoder to satisfy the pipeline interface.
type geocoderAdapter struct {
	inner Geocoder
}

func (a *geocoderAdapter) Geocode(ctx context.Context, address string) (domain.Location, error) {
	loc, err := a.inner.Geocode(ctx, address)
	if err != nil {
		return domain.Location{}, fmt.Errorf("geocode: %w", err)
	}
	return domain.Location(loc), nil
}

func (a *geocoderAdapter) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Location, error) {
	loc, err := a.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return domain.Location{}, fmt.Errorf("reverse geocode: %w", err)
	}
	return domain.Location(loc), nil
}
