// Package export serializes a run's geo-events into portable geospatial
// formats. Exports are derived read-only from the event list and never cached.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/mapbook/mapbook/internal/domain"
)

// GeoJSON serializes the events as a FeatureCollection of Point features.
// Coordinates follow GeoJSON order (longitude first) and non-ASCII text is
// preserved literally. An empty run yields an empty FeatureCollection.
func GeoJSON(events []domain.GeoEvent) ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(events))}
	for _, ev := range events {
		keys := ev.Keywords
		if keys == nil {
			keys = []string{}
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{ev.Longitude, ev.Latitude}),
			Properties: map[string]interface{}{
				"description": map[string]interface{}{
					"title":   ev.Title,
					"type":    ev.Type,
					"content": ev.Content,
					"keys":    keys,
				},
			},
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		return nil, fmt.Errorf("encode feature collection: %w", err)
	}
	return buf.Bytes(), nil
}
