package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mapbook/mapbook/internal/domain"
)

// --- Mocks ---

type mockCompleter struct {
	response string
	err      error
	lastUser string
}

func (m *mockCompleter) Complete(_ context.Context, _, user string) (string, error) {
	m.lastUser = user
	return m.response, m.err
}

const fencedResponse = "Here is the event:\n```event\n{\n" +
	`  "event_title": "Siege of Paris",` + "\n" +
	`  "event_type": "historical",` + "\n" +
	`  "event_content": "The city was besieged during the Franco-Prussian War.",` + "\n" +
	`  "keys": ["siege", "war"],` + "\n" +
	`  "address": "Paris, France"` + "\n" +
	"}\n```\nLet me know if you need more."

// --- Tests ---

func TestExtract_ParsesFencedBlock(t *testing.T) {
	completer := &mockCompleter{response: fencedResponse}
	svc := New(completer, nil)

	draft, err := svc.Extract(context.Background(), "some segment", "English")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if draft.Title != "Siege of Paris" {
		t.Errorf("title = %q", draft.Title)
	}
	if draft.Address != "Paris, France" {
		t.Errorf("address = %q", draft.Address)
	}
	if len(draft.Keywords) != 2 || draft.Keywords[0] != "siege" {
		t.Errorf("keywords = %q", draft.Keywords)
	}
}

func TestExtract_PromptCarriesLanguageAndSegment(t *testing.T) {
	completer := &mockCompleter{response: fencedResponse}
	svc := New(completer, nil)

	if _, err := svc.Extract(context.Background(), "the siege segment", "French"); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(completer.lastUser, "the siege segment") {
		t.Error("segment text missing from prompt")
	}
	if !strings.Contains(completer.lastUser, "French") {
		t.Error("target address language missing from prompt")
	}
}

func TestExtract_CompletionFailurePropagates(t *testing.T) {
	completer := &mockCompleter{err: domain.ErrCompletionService}
	svc := New(completer, nil)

	_, err := svc.Extract(context.Background(), "segment", "English")
	if !errors.Is(err, domain.ErrCompletionService) {
		t.Fatalf("expected ErrCompletionService, got %v", err)
	}
}

func TestParseEventBlock_WholeResponseFallback(t *testing.T) {
	draft, err := ParseEventBlock(`{"event_title": "t", "event_type": "y", "event_content": "c", "keys": [], "address": "Rome, Italy"}`)
	if err != nil {
		t.Fatalf("ParseEventBlock: %v", err)
	}
	if draft.Address != "Rome, Italy" {
		t.Errorf("address = %q", draft.Address)
	}
}

func TestParseEventBlock_LenientFormatting(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{
			"missing outer braces",
			"```event\n\"event_title\": \"t\",\n\"address\": \"Rome, Italy\",\n```",
		},
		{
			"trailing comma",
			"```event\n{\"event_title\": \"t\", \"address\": \"Rome, Italy\",}\n```",
		},
		{
			"plain json fence fallback",
			"```json\n{\"event_title\": \"t\", \"address\": \"Rome, Italy\"}\n```",
		},
		{
			"keys as scalar string",
			"```event\n{\"event_title\": \"t\", \"keys\": \"a, b\", \"address\": \"Rome, Italy\"}\n```",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := ParseEventBlock(tt.in)
			if err != nil {
				t.Fatalf("ParseEventBlock: %v", err)
			}
			if draft.Address != "Rome, Italy" {
				t.Errorf("address = %q", draft.Address)
			}
		})
	}
}

func TestParseEventBlock_KeysScalarSplit(t *testing.T) {
	draft, err := ParseEventBlock("```event\n{\"keys\": \"a, b、c\", \"address\": \"x\"}\n```")
	if err != nil {
		t.Fatalf("ParseEventBlock: %v", err)
	}
	if len(draft.Keywords) != 3 {
		t.Errorf("keywords = %q", draft.Keywords)
	}
}

func TestParseEventBlock_Malformed(t *testing.T) {
	_, err := ParseEventBlock("```event\nnot json at all {{{\n```")
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestParseEventBlock_MissingAddress(t *testing.T) {
	_, err := ParseEventBlock("```event\n{\"event_title\": \"t\"}\n```")
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}
