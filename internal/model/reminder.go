package model

import "time"

// ReminderChannel selects which delivery mechanisms a reminder uses.
type ReminderChannel string

const (
	ChannelPush  ReminderChannel = "push"
	ChannelInApp ReminderChannel = "in_app"
	ChannelBoth  ReminderChannel = "both"
)

// ValidChannel reports whether c is one of the known delivery channels.
func ValidChannel(c ReminderChannel) bool {
	switch c {
	case ChannelPush, ChannelInApp, ChannelBoth:
		return true
	}
	return false
}

// ReminderStatus is the lifecycle state of a reminder.
//
// Transitions: pending -> sent (delivery succeeded on at least one
// channel), pending -> cancelled (explicit user action). Sent and
// cancelled are terminal. A reminder whose delivery failed on every
// attempted channel stays pending and is picked up by the next scan.
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderSent      ReminderStatus = "sent"
	ReminderCancelled ReminderStatus = "cancelled"
)

// Reminder is a scheduled notification tied to a task and a future instant.
type Reminder struct {
	// ID is the unique identifier for this reminder.
	ID string `json:"id" db:"id"`

	// TaskID links this reminder to its owning task.
	TaskID string `json:"task_id" db:"task_id"`

	// UserID is the explicit recipient. When nil the recipient is
	// resolved to the task's current assignee at dispatch time, so a
	// reassignment after creation changes who is notified.
	UserID *string `json:"user_id,omitempty" db:"user_id"`

	// TriggerTime is the instant at which the reminder becomes due.
	// It must be strictly in the future at creation and reschedule time.
	TriggerTime time.Time `json:"trigger_time" db:"trigger_time"`

	// Channel selects push, in-app, or both delivery mechanisms.
	Channel ReminderChannel `json:"channel" db:"channel"`

	// Message is an optional override for the notification body.
	Message string `json:"message,omitempty" db:"message"`

	// Status is the current lifecycle state (use Reminder* constants).
	Status ReminderStatus `json:"status" db:"status"`

	// CreatedBy is the user who created this reminder.
	CreatedBy string `json:"created_by" db:"created_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
