package domain

import "strings"

// TextSegment is one narrative excerpt describing a single event, produced by
// splitting raw text at location-change boundaries. Seq is 1-based and runs
// across all chunks of a document.
type TextSegment struct {
	Seq  int
	Text string
}

// EventDraft is the structured description of one event as extracted from a
// segment, before geocoding. Drafts that fail geocoding are discarded.
// JSON field names follow the completion contract.
type EventDraft struct {
	Title    string   `json:"event_title"`
	Type     string   `json:"event_type"`
	Content  string   `json:"event_content"`
	Keywords []string `json:"keys"`
	Address  string   `json:"address"`
}

// Location is a resolved coordinate pair plus the backend's normalized address.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// GeoEvent merges an EventDraft with a successful geocode result. A GeoEvent
// always carries valid coordinates.
type GeoEvent struct {
	Seq       int      `json:"seq"`
	Title     string   `json:"event_title"`
	Type      string   `json:"event_type"`
	Content   string   `json:"event_content"`
	Keywords  []string `json:"keys"`
	Address   string   `json:"address"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
}

// NewGeoEvent builds a GeoEvent from a draft and its resolved location.
// The backend's normalized address replaces the draft's free-text one when
// the backend provides it.
func NewGeoEvent(seq int, draft EventDraft, loc Location) GeoEvent {
	address := strings.TrimSpace(loc.Address)
	if address == "" {
		address = draft.Address
	}
	return GeoEvent{
		Seq:       seq,
		Title:     draft.Title,
		Type:      draft.Type,
		Content:   draft.Content,
		Keywords:  draft.Keywords,
		Address:   address,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}
}
