package domain

import "sync"

// EventStore is the ordered, append-only collection of geo-events for one
// processing run. Insertion order equals the narrative order of the source
// text; the store never reorders. A per-run processed-sequence set guards
// against reprocessing the same segment index.
//
// One extraction run owns the store exclusively. Readers get point-in-time
// snapshots and may be invoked between appends.
type EventStore struct {
	mu        sync.RWMutex
	events    []GeoEvent
	processed map[int]struct{}
}

// NewEventStore creates an empty store for a fresh document run.
func NewEventStore() *EventStore {
	return &EventStore{processed: map[int]struct{}{}}
}

// Append stores the draft merged with its resolved location, preserving call
// order, and marks the sequence index processed. Coordinates are taken from
// the location verbatim.
func (s *EventStore) Append(seq int, draft EventDraft, loc Location) GeoEvent {
	ev := NewGeoEvent(seq, draft, loc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	s.processed[seq] = struct{}{}
	return ev
}

// MarkProcessed records a sequence index as handled without storing an event.
// Used for segments dropped by parse or geocode failures.
func (s *EventStore) MarkProcessed(seq int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[seq] = struct{}{}
}

// Processed reports whether a sequence index was already handled in this run.
func (s *EventStore) Processed(seq int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.processed[seq]
	return ok
}

// Events returns a snapshot copy of the stored geo-events in insertion order.
func (s *EventStore) Events() []GeoEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]GeoEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of stored geo-events.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Reset clears the events and the processed-sequence set. Invoked whenever a
// new source document replaces the previous one.
func (s *EventStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.processed = map[int]struct{}{}
}
