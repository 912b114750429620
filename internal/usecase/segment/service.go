// Package segment splits raw narrative text into ordered per-event spans,
// using a change of geographic location as the event boundary.
package segment

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Delimiter is the literal token the completion service is instructed to put
// between consecutive events.
const Delimiter = "------"

const systemPrompt = "You are a geographic analyst. " +
	"Your task is to split narrative text into discrete events."

const promptTemplate = `Analyze the following historical or news narrative. Identify the events it
describes — their content, where they happened, when, and who was involved —
using a change of geographic location as the decisive boundary between
events. Every event must name its location; content and time are optional.
Keep the original narrative order.

Describe each event in one complete, concise passage and strictly separate
consecutive events with a line containing exactly:

%s

The format above is only an example of the separator; base the output
strictly and completely on the following text:

%s`

// Service is the text segmenter. A fresh call may yield different spans for
// the same input because the completion service is non-deterministic.
type Service struct {
	completer Completer
	logger    *zap.Logger
}

// New creates a segmenter service.
func New(completer Completer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{completer: completer, logger: logger}
}

// Segment asks the completion service to partition one chunk of text into
// per-event spans and splits the response on the delimiter. Malformed span
// content is not validated here; it surfaces later during extraction.
func (s *Service) Segment(ctx context.Context, chunk string) ([]string, error) {
	out, err := s.completer.Complete(ctx, systemPrompt, fmt.Sprintf(promptTemplate, Delimiter, chunk))
	if err != nil {
		return nil, fmt.Errorf("segment chunk: %w", err)
	}

	spans := Split(out)
	s.logger.Debug("chunk segmented", zap.Int("segments", len(spans)))
	return spans, nil
}

// Split cuts a completion response on the event delimiter, trims surrounding
// whitespace and drops empty spans.
func Split(text string) []string {
	parts := strings.Split(text, Delimiter)
	spans := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			spans = append(spans, p)
		}
	}
	return spans
}
