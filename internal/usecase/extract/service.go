// Package extract turns one narrative segment into a structured event draft
// via the completion service.
package extract

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mapbook/mapbook/internal/domain"
)

const systemPrompt = "You are a geographic event analyst. " +
	"Your task is to locate the geographic information in a text and extract the related event."

// The address rules are generation-time instructions; the extractor validates
// field presence defensively but the real enforcement is a downstream
// geocoding failure.
const promptTemplate = `Analyze the following historical or news excerpt. Identify the event's
content, where it happened, when, and who was involved, then produce the
event's attributes. Wrap the generated content in a fenced block opened by
` + "```event" + ` and closed by ` + "```" + `, holding a single JSON object with exactly
these fields, for example:

` + "```event" + `
{
  "event_title": "Intelligence on ABC Corp's new product",
  "event_type": "market intelligence",
  "event_content": "Monitoring of social platforms shows ABC Corp will launch its new phone at the end of the month.",
  "keys": ["Twitter", "Facebook", "LinkedIn"],
  "address": "Beijing, China"
}
` + "```" + `

Rules for the generated address:
- it must strictly follow geocoding and OSM conventions;
- it must name exactly one location, never several at once;
- historical places must be expressed by their present-day official names,
  otherwise the geocoder cannot resolve them;
- prefer official place names so the geocoder recognizes them.

Keep event_content complete and concise (around 200 characters). Write the
address strictly in %s; write the other fields in the language of the
excerpt. The excerpt:

%s`

// Service is the event extractor.
type Service struct {
	completer Completer
	logger    *zap.Logger
}

// New creates an extractor service.
func New(completer Completer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{completer: completer, logger: logger}
}

// Extract asks the completion service for the structured event block of one
// segment and parses it. addressLanguage controls the language the address
// field is generated in. Parse failures are not retried; the caller drops
// the segment.
func (s *Service) Extract(ctx context.Context, segmentText, addressLanguage string) (domain.EventDraft, error) {
	if addressLanguage == "" {
		addressLanguage = "English"
	}

	out, err := s.completer.Complete(ctx, systemPrompt, fmt.Sprintf(promptTemplate, addressLanguage, segmentText))
	if err != nil {
		return domain.EventDraft{}, fmt.Errorf("extract event: %w", err)
	}

	draft, err := ParseEventBlock(out)
	if err != nil {
		return domain.EventDraft{}, err
	}

	s.logger.Debug("event extracted",
		zap.String("title", draft.Title),
		zap.String("address", draft.Address),
	)
	return draft, nil
}
