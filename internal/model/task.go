package model

import "time"

// Priority constants (lower number = higher priority).
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityMedium   = 3
	PriorityLow      = 4
	PriorityLowest   = 5
)

// Task is a work item on the platform. Only the fields the notification
// pipeline reads are modeled here; the rest of the task record belongs
// to the CRUD layer.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id" db:"id"`

	// Title is the human-readable summary of the task.
	Title string `json:"title" db:"title"`

	// Description is the full body/description text.
	Description string `json:"description" db:"description"`

	// Priority is the urgency level (use Priority* constants).
	Priority int `json:"priority" db:"priority"`

	// AssignedTo is the user currently responsible for the task,
	// nil when unassigned.
	AssignedTo *string `json:"assigned_to,omitempty" db:"assigned_to"`

	// CreatedBy is the user who created the task.
	CreatedBy string `json:"created_by" db:"created_by"`

	// LastEditedBy is the user who most recently edited the task.
	LastEditedBy *string `json:"last_edited_by,omitempty" db:"last_edited_by"`

	// DueDate is when the task is due, nil when none is set.
	DueDate *time.Time `json:"due_date,omitempty" db:"due_date"`

	// Completed marks the task as done.
	Completed bool `json:"completed" db:"completed"`

	// ReminderAt and ReminderSent mirror the earliest pending reminder
	// for this task. Older consumers only understand one reminder per
	// task; the store keeps this pair in sync on every reminder mutation.
	ReminderAt   *time.Time `json:"reminder_at,omitempty" db:"reminder_at"`
	ReminderSent bool       `json:"reminder_sent" db:"reminder_sent"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// User is a platform account the pipeline notifies.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
