package pipeline

import (
	"context"

	"github.com/mapbook/mapbook/internal/domain"
)

// Segmenter splits one chunk of raw text into ordered per-event spans.
type Segmenter interface {
	Segment(ctx context.Context, chunk string) ([]string, error)
}

// Extractor turns one segment into a structured event draft.
type Extractor interface {
	Extract(ctx context.Context, segmentText, addressLanguage string) (domain.EventDraft, error)
}

// Geocoder resolves a draft's address to coordinates. One lookup per call.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Location, error)
}
