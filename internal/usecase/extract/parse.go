package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mapbook/mapbook/internal/domain"
)

// eventBlockRe matches the fenced event span non-greedily; models sometimes
// emit prose around the block.
var eventBlockRe = regexp.MustCompile("(?s)```event(.*?)```")

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// ParseEventBlock scans a completion response for the event-fenced span
// (falling back to the whole response when no fences are present) and decodes
// it leniently. Returns domain.ErrParse when no decodable block exists or the
// address field is missing.
func ParseEventBlock(response string) (domain.EventDraft, error) {
	candidate := response
	if m := eventBlockRe.FindStringSubmatch(response); m != nil {
		candidate = m[1]
	}

	draft, err := decodeDraft(candidate)
	if err != nil {
		return domain.EventDraft{}, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	draft.Address = strings.TrimSpace(draft.Address)
	if draft.Address == "" {
		return domain.EventDraft{}, fmt.Errorf("%w: missing address field", domain.ErrParse)
	}
	return draft, nil
}

// decodeDraft tolerates the usual completion formatting faults: stray code
// fences, a missing outer brace pair, trailing commas, and a keys field
// emitted as a scalar instead of an array.
func decodeDraft(raw string) (domain.EventDraft, error) {
	raw = stripFences(strings.TrimSpace(raw))
	if !strings.HasPrefix(raw, "{") {
		raw = "{" + raw + "}"
	}
	raw = trailingCommaRe.ReplaceAllString(raw, "$1")

	var payload struct {
		Title   string          `json:"event_title"`
		Type    string          `json:"event_type"`
		Content string          `json:"event_content"`
		Keys    json.RawMessage `json:"keys"`
		Address string          `json:"address"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return domain.EventDraft{}, err
	}

	return domain.EventDraft{
		Title:    payload.Title,
		Type:     payload.Type,
		Content:  payload.Content,
		Keywords: decodeKeys(payload.Keys),
		Address:  payload.Address,
	}, nil
}

// stripFences removes a leading ``` or ```json line and the matching closing
// fence left over when the model nests fences inside the event block.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	end := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}

// decodeKeys accepts keys as a JSON array of strings or a single scalar
// string with comma-separated values.
func decodeKeys(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var scalar string
	if err := json.Unmarshal(raw, &scalar); err == nil {
		var keys []string
		for _, k := range strings.FieldsFunc(scalar, func(r rune) bool { return r == ',' || r == '、' }) {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		return keys
	}
	return nil
}
