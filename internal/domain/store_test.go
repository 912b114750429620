package domain

import "testing"

func draftFor(title, address string) EventDraft {
	return EventDraft{Title: title, Type: "historical", Content: "c", Address: address}
}

func TestEventStore_AppendPreservesOrder(t *testing.T) {
	s := NewEventStore()

	s.Append(1, draftFor("a", "Paris"), Location{Latitude: 48.85, Longitude: 2.35, Address: "Paris, France"})
	s.Append(2, draftFor("b", "Tokyo"), Location{Latitude: 35.68, Longitude: 139.69, Address: "Tokyo, Japan"})

	events := s.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Title != "a" || events[1].Title != "b" {
		t.Errorf("insertion order not preserved: %q, %q", events[0].Title, events[1].Title)
	}
	if events[0].Seq != 1 || events[1].Seq != 2 {
		t.Errorf("unexpected sequence indices: %d, %d", events[0].Seq, events[1].Seq)
	}
}

func TestEventStore_CoordinatesTakenVerbatim(t *testing.T) {
	s := NewEventStore()
	loc := Location{Latitude: 48.8566, Longitude: 2.3522, Address: "Paris, France"}

	ev := s.Append(1, draftFor("a", "Paris"), loc)

	if ev.Latitude != loc.Latitude || ev.Longitude != loc.Longitude {
		t.Errorf("coordinates transformed: got (%f, %f)", ev.Latitude, ev.Longitude)
	}
	if ev.Address != "Paris, France" {
		t.Errorf("expected normalized address, got %q", ev.Address)
	}
}

func TestEventStore_NormalizedAddressFallsBackToDraft(t *testing.T) {
	s := NewEventStore()

	ev := s.Append(1, draftFor("a", "Beijing"), Location{Latitude: 39.9, Longitude: 116.4})

	if ev.Address != "Beijing" {
		t.Errorf("expected draft address fallback, got %q", ev.Address)
	}
}

func TestEventStore_ProcessedGuard(t *testing.T) {
	s := NewEventStore()

	if s.Processed(1) {
		t.Error("fresh store should have no processed indices")
	}

	s.MarkProcessed(1)
	if !s.Processed(1) {
		t.Error("MarkProcessed(1) not reflected")
	}
	if s.Len() != 0 {
		t.Errorf("marking processed must not store events, len=%d", s.Len())
	}

	s.Append(2, draftFor("a", "x"), Location{Latitude: 1, Longitude: 2})
	if !s.Processed(2) {
		t.Error("Append must mark the sequence index processed")
	}
}

func TestEventStore_Reset(t *testing.T) {
	s := NewEventStore()
	s.Append(1, draftFor("a", "x"), Location{Latitude: 1, Longitude: 2})
	s.MarkProcessed(2)

	s.Reset()

	if s.Len() != 0 {
		t.Errorf("expected empty store after reset, len=%d", s.Len())
	}
	if s.Processed(1) || s.Processed(2) {
		t.Error("processed set must be cleared on reset")
	}
}

func TestEventStore_EventsReturnsSnapshot(t *testing.T) {
	s := NewEventStore()
	s.Append(1, draftFor("a", "x"), Location{Latitude: 1, Longitude: 2})

	snap := s.Events()
	snap[0].Title = "mutated"

	if s.Events()[0].Title != "a" {
		t.Error("Events() must return a copy")
	}
}
