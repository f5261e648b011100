// Package push delivers notification payloads to a user's registered
// push endpoints through the platform's external push transport. The
// transport itself is a black box: this package only knows how to hand
// it a payload and a subscription and report success or failure.
package push

import "time"

// NotificationType tells the receiving client how to present a push so
// it can vary urgency and required-interaction behavior.
type NotificationType string

const (
	TypeDueSoon     NotificationType = "due_soon"
	TypeDueToday    NotificationType = "due_today"
	TypeOverdue     NotificationType = "overdue"
	TypeDigestReady NotificationType = "digest_ready"
)

// Payload is the notification content handed to the transport.
type Payload struct {
	// Title and Body are the visible notification text.
	Title string `json:"title"`
	Body  string `json:"body"`

	// Tag is an opaque grouping key clients use to deduplicate and
	// collapse related notifications.
	Tag string `json:"tag"`

	// Type classifies the notification (use Type* constants).
	Type NotificationType `json:"type"`
}

// retryAfter is the pause between delivery attempts on HTTP 429.
const retryAfter = 500 * time.Millisecond
