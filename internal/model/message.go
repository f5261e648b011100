package model

import "time"

// Message is an in-app notification surfaced to a user, written by the
// dispatcher's in-app channel.
type Message struct {
	// ID is the unique identifier for this message.
	ID string `json:"id" db:"id"`

	// UserID is the recipient.
	UserID string `json:"user_id" db:"user_id"`

	// ReminderID links back to the originating reminder, when any.
	ReminderID *string `json:"reminder_id,omitempty" db:"reminder_id"`

	// Title and Body are the human-readable notification content.
	Title string `json:"title" db:"title"`
	Body  string `json:"body" db:"body"`

	// Read indicates whether the user has seen this message.
	Read bool `json:"read" db:"read"`

	// CreatedAt is when this message was generated.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PushSubscription is a registered push endpoint for a user's client.
// A user may hold several (one per browser/device); the dispatcher
// fans out to all of them.
type PushSubscription struct {
	ID       string `json:"id" db:"id"`
	UserID   string `json:"user_id" db:"user_id"`
	Endpoint string `json:"endpoint" db:"endpoint"`

	// Keys is the opaque client key material blob, stored as given.
	Keys string `json:"keys" db:"keys"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
