package model

import "time"

// DigestType identifies which scheduled slot a digest belongs to.
type DigestType string

const (
	DigestMorning   DigestType = "morning"
	DigestAfternoon DigestType = "afternoon"
)

// ValidDigestType reports whether t is a known digest type.
func ValidDigestType(t DigestType) bool {
	return t == DigestMorning || t == DigestAfternoon
}

// Digest is a periodically generated, per-user summarized briefing of
// task and activity state.
type Digest struct {
	// ID is the unique identifier for this digest.
	ID string `json:"id" db:"id"`

	// UserID is the recipient of the briefing.
	UserID string `json:"user_id" db:"user_id"`

	// DigestType is the scheduled slot this digest was generated for.
	DigestType DigestType `json:"digest_type" db:"digest_type"`

	// GeneratedAt is when the briefing was assembled. A digest is
	// "current" while GeneratedAt is inside the freshness window.
	GeneratedAt time.Time `json:"generated_at" db:"generated_at"`

	// ReadAt is set the first time a user-facing fetch observes the
	// digest; nil until then.
	ReadAt *time.Time `json:"read_at,omitempty" db:"read_at"`

	// Payload is the structured briefing content.
	Payload DigestPayload `json:"payload" db:"-"`
}

// DigestPayload is the structured briefing shown to the user.
type DigestPayload struct {
	Greeting        string        `json:"greeting"`
	OverdueTasks    DigestSection `json:"overdue_tasks"`
	TodaysTasks     DigestSection `json:"todays_tasks"`
	ActivitySummary string        `json:"activity_summary"`
	FocusSuggestion string        `json:"focus_suggestion"`
}

// DigestSection summarizes one group of tasks inside a briefing.
type DigestSection struct {
	Count   int         `json:"count"`
	Summary string      `json:"summary"`
	Tasks   []DigestRef `json:"tasks,omitempty"`
}

// DigestRef is a compact task reference embedded in a digest section.
type DigestRef struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Priority int        `json:"priority"`
	DueDate  *time.Time `json:"due_date,omitempty"`
}
