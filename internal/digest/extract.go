package digest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoPayload is returned when the summarizer response contains no
	// JSON object at all.
	ErrNoPayload = errors.New("summarizer response contains no JSON payload")

	// ErrInvalidPayload is returned when the embedded JSON is missing a
	// required field. Missing fields are never coerced into defaults;
	// the digest fails closed instead.
	ErrInvalidPayload = errors.New("summarizer payload is missing required fields")
)

// briefing is the strict schema the summarizer must embed in its reply.
type briefing struct {
	Greeting        string `json:"greeting"`
	OverdueSummary  string `json:"overdue_summary"`
	TodaySummary    string `json:"today_summary"`
	ActivitySummary string `json:"activity_summary"`
	FocusSuggestion string `json:"focus_suggestion"`
}

// extractBriefing pulls the embedded JSON object out of the free-text
// summarizer response and validates it against the briefing schema.
// The object spans from the first '{' to the last '}' in the text.
func extractBriefing(raw string) (briefing, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return briefing{}, ErrNoPayload
	}

	var b briefing
	if err := json.Unmarshal([]byte(raw[start:end+1]), &b); err != nil {
		return briefing{}, fmt.Errorf("parsing summarizer payload: %w", err)
	}

	// Checked in schema order so the error message is stable across runs.
	required := []struct {
		field string
		value string
	}{
		{"greeting", b.Greeting},
		{"overdue_summary", b.OverdueSummary},
		{"today_summary", b.TodaySummary},
		{"activity_summary", b.ActivitySummary},
		{"focus_suggestion", b.FocusSuggestion},
	}

	missing := make([]string, 0, len(required))
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return briefing{}, fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(missing, ", "))
	}

	return b, nil
}
