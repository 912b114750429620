package domain

import "time"

// SkippedSegment records a segment that produced no geo-event and why.
type SkippedSegment struct {
	Seq    int    `json:"seq"`
	Reason string `json:"reason"`
}

// Run is a completed extraction over one document, persisted so its events
// can be re-read for map views and exports.
type Run struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Language  string           `json:"language"`
	Segments  int              `json:"segments"`
	Events    []GeoEvent       `json:"events"`
	Skipped   []SkippedSegment `json:"skipped,omitempty"`
}
