package notify

import "github.com/nhle/taskboard/internal/model"

// ChannelResult records a single channel's delivery attempt.
type ChannelResult struct {
	Channel model.ReminderChannel `json:"channel"`
	Err     error                 `json:"-"`
}

// Outcome records, per channel attempted, either success or the captured
// error. A channel failure never propagates as a hard failure; callers
// inspect the outcome instead.
type Outcome struct {
	ReminderID string          `json:"reminder_id"`
	Recipient  string          `json:"recipient"`
	Results    []ChannelResult `json:"results"`
}

// Succeeded reports whether at least one channel delivered. Partial
// success counts as success for the reminder state machine.
func (o Outcome) Succeeded() bool {
	for _, r := range o.Results {
		if r.Err == nil {
			return true
		}
	}
	return false
}

// Failures returns the results whose delivery attempt failed.
func (o Outcome) Failures() []ChannelResult {
	var failed []ChannelResult
	for _, r := range o.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
