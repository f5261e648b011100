package model

import "time"

// Activity action constants recorded by the platform's CRUD layer.
const (
	ActivityTaskCreated   = "task_created"
	ActivityTaskUpdated   = "task_updated"
	ActivityTaskCompleted = "task_completed"
	ActivityTaskAssigned  = "task_assigned"
	ActivityCommentAdded  = "comment_added"
)

// ActivityLogEntry is a read-only record of something a user did.
// The digest assembler consumes these to build the team-activity
// transcript; this subsystem never mutates them.
type ActivityLogEntry struct {
	// ID is the unique identifier for this entry.
	ID string `json:"id" db:"id"`

	// UserID is the actor who performed the action.
	UserID string `json:"user_id" db:"user_id"`

	// UserName is the actor's display name, denormalized for rendering.
	UserName string `json:"user_name" db:"user_name"`

	// Action is what happened (use Activity* constants).
	Action string `json:"action" db:"action"`

	// TaskID and TaskTitle reference the affected task, when any.
	TaskID    *string `json:"task_id,omitempty" db:"task_id"`
	TaskTitle string  `json:"task_title" db:"task_title"`

	// CreatedAt is when the action occurred.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
