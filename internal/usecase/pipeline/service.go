// Package pipeline orchestrates the narrative-to-geo-event extraction run:
// chunking, segmentation, extraction, geocoding and store population.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mapbook/mapbook/internal/domain"
	"github.com/mapbook/mapbook/internal/metrics"
)

const (
	// DefaultChunkSize bounds one completion request's input text.
	DefaultChunkSize = 5000
	// DefaultGeocodeDelay paces lookups for the free backend's courtesy
	// limit of one request per second.
	DefaultGeocodeDelay = time.Second
)

// Service runs the extraction pipeline strictly sequentially: segments are
// handled in source order and the next segment starts only after the current
// geocode call returns. GeoEvent insertion order therefore always matches
// segment emission order.
type Service struct {
	segmenter Segmenter
	extractor Extractor
	geocoder  Geocoder
	logger    *zap.Logger

	chunkSize    int
	geocodeDelay time.Duration
}

// New creates a pipeline service with default chunking and geocode pacing.
func New(segmenter Segmenter, extractor Extractor, geocoder Geocoder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		segmenter:    segmenter,
		extractor:    extractor,
		geocoder:     geocoder,
		logger:       logger,
		chunkSize:    DefaultChunkSize,
		geocodeDelay: DefaultGeocodeDelay,
	}
}

// WithChunkSize overrides the per-request text chunk size.
func (s *Service) WithChunkSize(n int) *Service {
	if n > 0 {
		s.chunkSize = n
	}
	return s
}

// WithGeocodeDelay overrides the pause inserted between geocode calls.
func (s *Service) WithGeocodeDelay(d time.Duration) *Service {
	s.geocodeDelay = d
	return s
}

// Result summarizes one document run. Partial success is the norm: a
// document with N segments may legitimately yield fewer than N geo-events.
type Result struct {
	Events   []domain.GeoEvent       `json:"events"`
	Segments int                     `json:"segments"`
	Skipped  []domain.SkippedSegment `json:"skipped,omitempty"`
}

// Process runs the full pipeline over raw document text, appending geo-events
// to store. Per-segment completion, parse and geocode failures skip the
// segment and never abort the run; the error return is reserved for context
// cancellation.
func (s *Service) Process(ctx context.Context, text, addressLanguage string, store *domain.EventStore) (Result, error) {
	var res Result
	seq := 0
	geocoded := false

	for _, chunk := range Chunks(text, s.chunkSize) {
		if err := ctx.Err(); err != nil {
			res.Events = store.Events()
			return res, err
		}

		segments, err := s.segmenter.Segment(ctx, chunk)
		if err != nil {
			s.logger.Warn("skipping chunk", zap.Error(err))
			continue
		}

		for _, segmentText := range segments {
			seq++
			res.Segments++

			if store.Processed(seq) {
				s.logger.Debug("segment already processed", zap.Int("seq", seq))
				continue
			}

			if skipped, ok := s.processSegment(ctx, seq, segmentText, addressLanguage, store, &geocoded); !ok {
				res.Skipped = append(res.Skipped, skipped)
			}
		}
	}

	res.Events = store.Events()
	return res, ctx.Err()
}

// processSegment extracts and geocodes one segment. Returns ok=false with the
// skip record when the segment is dropped.
func (s *Service) processSegment(
	ctx context.Context, seq int, segmentText, addressLanguage string,
	store *domain.EventStore, geocoded *bool,
) (domain.SkippedSegment, bool) {
	draft, err := s.extractor.Extract(ctx, segmentText, addressLanguage)
	if err != nil {
		store.MarkProcessed(seq)
		metrics.SegmentsProcessedTotal.WithLabelValues("skipped").Inc()
		s.logger.Warn("skipping segment", zap.Int("seq", seq), zap.Error(err))
		return domain.SkippedSegment{Seq: seq, Reason: err.Error()}, false
	}

	// Pace lookups between consecutive geocode calls, not before the first.
	if *geocoded {
		s.pause(ctx)
	}
	*geocoded = true

	loc, err := s.geocoder.Geocode(ctx, draft.Address)
	if err != nil {
		store.MarkProcessed(seq)
		metrics.SegmentsProcessedTotal.WithLabelValues("dropped").Inc()
		s.logger.Warn("dropping draft",
			zap.Int("seq", seq),
			zap.String("address", draft.Address),
			zap.Error(err),
		)
		return domain.SkippedSegment{Seq: seq, Reason: err.Error()}, false
	}

	ev := store.Append(seq, draft, loc)
	metrics.SegmentsProcessedTotal.WithLabelValues("stored").Inc()
	s.logger.Info("geo-event stored",
		zap.Int("seq", seq),
		zap.String("title", ev.Title),
		zap.Float64("lat", ev.Latitude),
		zap.Float64("lon", ev.Longitude),
	)
	return domain.SkippedSegment{}, true
}

func (s *Service) pause(ctx context.Context) {
	if s.geocodeDelay <= 0 {
		return
	}
	t := time.NewTimer(s.geocodeDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
