package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// Sentinel errors surfaced to handlers for status-code mapping.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrReminderTimeInPast is returned when a reminder is created or
	// rescheduled with a trigger time that is not strictly in the future.
	ErrReminderTimeInPast = errors.New("reminder time must be in the future")

	// ErrTaskCompleted is returned when a reminder is created on a task
	// that is already completed.
	ErrTaskCompleted = errors.New("cannot add a reminder to a completed task")

	// ErrReminderTerminal is returned when a mutation targets a reminder
	// that is no longer pending.
	ErrReminderTerminal = errors.New("reminder is no longer pending")
)

// ReminderFilter controls filtering for reminder list queries.
type ReminderFilter struct {
	TaskID *string
	UserID *string
	Status *model.ReminderStatus
	Limit  int
}

// Store defines the persistence interface for the reminder and digest
// pipeline: reminders with their legacy task mirror, digests with read
// tracking, and the user/task/activity/subscription/message records the
// pipeline reads and writes.
type Store interface {
	// === Users ===

	CreateUser(ctx context.Context, u model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	ActiveUsers(ctx context.Context) ([]model.User, error)

	// === Tasks ===

	CreateTask(ctx context.Context, t model.Task) (*model.Task, error)
	UpdateTask(ctx context.Context, t model.Task) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	OverdueTasks(ctx context.Context, before time.Time) ([]model.Task, error)
	TasksDueBetween(ctx context.Context, start, end time.Time) ([]model.Task, error)
	TasksCompletedBetween(ctx context.Context, start, end time.Time) ([]model.Task, error)

	// === Activity log ===

	LogActivity(ctx context.Context, e model.ActivityLogEntry) error
	RecentActivity(ctx context.Context, since time.Time, limit int) ([]model.ActivityLogEntry, error)

	// === Reminders ===

	CreateReminder(ctx context.Context, r model.Reminder) (*model.Reminder, error)
	GetReminderByID(ctx context.Context, id string) (*model.Reminder, error)
	GetReminders(ctx context.Context, f ReminderFilter) ([]model.Reminder, error)
	UpdateReminder(ctx context.Context, r model.Reminder) error
	CancelReminder(ctx context.Context, id string) error
	DeleteReminder(ctx context.Context, id string) error
	DueReminders(ctx context.Context, now time.Time) ([]model.Reminder, error)
	MarkReminderSent(ctx context.Context, id string, now time.Time) error
	ReminderCounts(ctx context.Context, now time.Time, soonWindow time.Duration) (pending, dueSoon int, err error)

	// === Digests ===

	CreateDigest(ctx context.Context, d model.Digest) (*model.Digest, error)
	LatestDigest(ctx context.Context, userID string, digestType model.DigestType, since time.Time) (*model.Digest, error)
	MarkDigestRead(ctx context.Context, id string, now time.Time) error

	// === Push subscriptions ===

	SavePushSubscription(ctx context.Context, s model.PushSubscription) (*model.PushSubscription, error)
	SubscriptionsForUser(ctx context.Context, userID string) ([]model.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, id string) error

	// === In-app messages ===

	CreateMessage(ctx context.Context, m model.Message) error
	UnreadMessages(ctx context.Context, userID string) ([]model.Message, error)
	MarkMessageRead(ctx context.Context, id string) error
}
