// Package mapview derives map primitives — markers and the directional route
// line — from a run's geo-events. Artifacts are pure views recomputed on
// demand, never persisted.
package mapview

import (
	"fmt"
	"strings"

	"github.com/mapbook/mapbook/internal/domain"
	"github.com/mapbook/mapbook/internal/domain/geo"
)

// Marker is a renderable point with a popup payload.
type Marker struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Popup     string  `json:"popup"`
}

// Point is one route vertex.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Arrow is a directional indicator at the midpoint of a consecutive pair,
// rotated to the travel bearing in degrees.
type Arrow struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Bearing   float64 `json:"bearing"`
}

// Route is the ordered polyline connecting geo-events in narrative order.
// A run with fewer than two events yields an empty route.
type Route struct {
	Points       []Point `json:"points"`
	Arrows       []Arrow `json:"arrows"`
	LengthMeters float64 `json:"length_meters"`
}

// Markers builds one marker per geo-event, in store order.
func Markers(events []domain.GeoEvent) []Marker {
	markers := make([]Marker, 0, len(events))
	for _, ev := range events {
		markers = append(markers, Marker{
			Latitude:  ev.Latitude,
			Longitude: ev.Longitude,
			Popup:     popup(ev),
		})
	}
	return markers
}

// BuildRoute builds the connecting line for N >= 2 events: N points and N-1
// directional arrows, plus the summed great-circle length.
func BuildRoute(events []domain.GeoEvent) Route {
	if len(events) < 2 {
		return Route{}
	}

	route := Route{
		Points: make([]Point, 0, len(events)),
		Arrows: make([]Arrow, 0, len(events)-1),
	}
	for _, ev := range events {
		route.Points = append(route.Points, Point{Latitude: ev.Latitude, Longitude: ev.Longitude})
	}
	for i := 0; i < len(events)-1; i++ {
		a, b := events[i], events[i+1]
		midLat, midLon := geo.Midpoint(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
		route.Arrows = append(route.Arrows, Arrow{
			Latitude:  midLat,
			Longitude: midLon,
			Bearing:   geo.Bearing(a.Latitude, a.Longitude, b.Latitude, b.Longitude),
		})
		route.LengthMeters += geo.Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	}
	return route
}

// popup renders the fixed-format marker payload from the four event attributes.
func popup(ev domain.GeoEvent) string {
	return fmt.Sprintf("<b>%s</b><br>Type: %s<br>Content: %s<br>Keywords: %s",
		ev.Title, ev.Type, ev.Content, strings.Join(ev.Keywords, ", "))
}
