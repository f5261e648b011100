package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskboard/internal/model"
)

// CreateReminder validates and inserts a new reminder, then refreshes the
// owning task's legacy mirror columns in the same transaction.
//
// Validation: the trigger time must be strictly in the future, the task
// must exist, and the task must not be completed.
func (s *SQLiteStore) CreateReminder(ctx context.Context, r model.Reminder) (*model.Reminder, error) {
	if r.TaskID == "" {
		return nil, fmt.Errorf("reminder task_id must not be empty")
	}
	if !model.ValidChannel(r.Channel) {
		return nil, fmt.Errorf("unknown reminder channel %q", r.Channel)
	}

	now := time.Now().UTC()
	if !r.TriggerTime.After(now) {
		return nil, ErrReminderTimeInPast
	}

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	r.TriggerTime = r.TriggerTime.UTC()
	r.Status = model.ReminderPending
	r.CreatedAt = now
	r.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var completed int
	err = tx.GetContext(ctx, &completed, "SELECT completed FROM tasks WHERE id = ?", r.TaskID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", r.TaskID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking task %s: %w", r.TaskID, err)
	}
	if completed != 0 {
		return nil, ErrTaskCompleted
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reminders (
			id, task_id, user_id, trigger_time, channel,
			message, status, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.TaskID, r.UserID, r.TriggerTime, string(r.Channel),
		r.Message, string(r.Status), r.CreatedBy, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating reminder: %w", err)
	}

	if err := syncTaskReminderMirror(ctx, tx, r.TaskID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reminder create: %w", err)
	}
	return &r, nil
}

// GetReminderByID retrieves a single reminder by ID.
func (s *SQLiteStore) GetReminderByID(ctx context.Context, id string) (*model.Reminder, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM reminders WHERE id = ?", id)

	r, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting reminder %s: %w", id, err)
	}
	return &r, nil
}

// GetReminders retrieves reminders matching the provided filter. Task-scoped
// lists are ordered by trigger time ascending; everything else by creation
// time descending.
func (s *SQLiteStore) GetReminders(ctx context.Context, f ReminderFilter) ([]model.Reminder, error) {
	var conditions []string
	var args []interface{}

	if f.TaskID != nil {
		conditions = append(conditions, "task_id = ?")
		args = append(args, *f.TaskID)
	}
	if f.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*f.Status))
	}

	query := "SELECT * FROM reminders"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if f.TaskID != nil {
		query += " ORDER BY trigger_time ASC"
	} else {
		query += " ORDER BY created_at DESC"
	}
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reminders: %w", err)
	}
	defer rows.Close()

	var reminders []model.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reminder row: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// UpdateReminder reschedules a pending reminder and/or updates its channel
// and message override. Terminal reminders cannot be updated. The
// future-trigger rule applies only when the trigger time actually changes,
// so a reminder whose trigger already passed can still have its message or
// channel edited without rescheduling.
func (s *SQLiteStore) UpdateReminder(ctx context.Context, r model.Reminder) error {
	if !model.ValidChannel(r.Channel) {
		return fmt.Errorf("unknown reminder channel %q", r.Channel)
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := getReminderTx(ctx, tx, r.ID)
	if err != nil {
		return err
	}
	if existing.Status != model.ReminderPending {
		return ErrReminderTerminal
	}
	if !r.TriggerTime.Equal(existing.TriggerTime) && !r.TriggerTime.After(now) {
		return ErrReminderTimeInPast
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE reminders SET
			trigger_time = ?, channel = ?, message = ?, user_id = ?, updated_at = ?
		WHERE id = ?`,
		r.TriggerTime.UTC(), string(r.Channel), r.Message, r.UserID, now, r.ID,
	)
	if err != nil {
		return fmt.Errorf("updating reminder %s: %w", r.ID, err)
	}

	if err := syncTaskReminderMirror(ctx, tx, existing.TaskID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reminder update: %w", err)
	}
	return nil
}

// CancelReminder transitions a pending reminder to cancelled. Cancelling a
// terminal reminder is rejected.
func (s *SQLiteStore) CancelReminder(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := getReminderTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if existing.Status != model.ReminderPending {
		return ErrReminderTerminal
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE reminders SET status = ?, updated_at = ? WHERE id = ?",
		string(model.ReminderCancelled), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("cancelling reminder %s: %w", id, err)
	}

	if err := syncTaskReminderMirror(ctx, tx, existing.TaskID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reminder cancel: %w", err)
	}
	return nil
}

// DeleteReminder removes a reminder by ID. Only explicit user deletion
// reaches this; the pipeline never hard-deletes.
func (s *SQLiteStore) DeleteReminder(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := getReminderTx(ctx, tx, id)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM reminders WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting reminder %s: %w", id, err)
	}

	if err := syncTaskReminderMirror(ctx, tx, existing.TaskID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reminder delete: %w", err)
	}
	return nil
}

// DueReminders retrieves every pending reminder whose trigger time has
// passed, ordered by trigger time for stable logging. Pure read.
func (s *SQLiteStore) DueReminders(ctx context.Context, now time.Time) ([]model.Reminder, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM reminders
		WHERE status = ? AND trigger_time <= ?
		ORDER BY trigger_time ASC`,
		string(model.ReminderPending), now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []model.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reminder row: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// MarkReminderSent transitions a pending reminder to sent and refreshes the
// task mirror. A reminder that already left pending is left untouched;
// overlapping scans may race here and that is tolerated.
func (s *SQLiteStore) MarkReminderSent(ctx context.Context, id string, now time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := getReminderTx(ctx, tx, id)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE reminders SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		string(model.ReminderSent), now.UTC(), id, string(model.ReminderPending),
	)
	if err != nil {
		return fmt.Errorf("marking reminder %s sent: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		// Already terminal; nothing to mirror.
		return nil
	}

	if err := syncTaskReminderMirror(ctx, tx, existing.TaskID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reminder sent: %w", err)
	}
	return nil
}

// ReminderCounts reports how many reminders are pending in total and how
// many of those come due within soonWindow. No side effects.
func (s *SQLiteStore) ReminderCounts(ctx context.Context, now time.Time, soonWindow time.Duration) (int, int, error) {
	var pending int
	err := s.db.GetContext(ctx, &pending,
		"SELECT COUNT(*) FROM reminders WHERE status = ?",
		string(model.ReminderPending),
	)
	if err != nil {
		return 0, 0, fmt.Errorf("counting pending reminders: %w", err)
	}

	var dueSoon int
	err = s.db.GetContext(ctx, &dueSoon,
		"SELECT COUNT(*) FROM reminders WHERE status = ? AND trigger_time <= ?",
		string(model.ReminderPending), now.Add(soonWindow).UTC(),
	)
	if err != nil {
		return 0, 0, fmt.Errorf("counting soon-due reminders: %w", err)
	}

	return pending, dueSoon, nil
}

// getReminderTx loads a reminder inside a transaction, mapping missing rows
// to ErrNotFound.
func getReminderTx(ctx context.Context, tx *sqlx.Tx, id string) (model.Reminder, error) {
	row := tx.QueryRowxContext(ctx, "SELECT * FROM reminders WHERE id = ?", id)

	r, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reminder{}, fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Reminder{}, fmt.Errorf("getting reminder %s: %w", id, err)
	}
	return r, nil
}

// syncTaskReminderMirror rewrites the owning task's legacy single-reminder
// columns after any reminder mutation. The mirror points at the earliest
// pending reminder; when none remains, a just-sent reminder leaves its
// trigger time behind with the sent flag set, and otherwise the columns
// are cleared.
func syncTaskReminderMirror(ctx context.Context, tx *sqlx.Tx, taskID string) error {
	var trigger time.Time
	err := tx.GetContext(ctx, &trigger, `
		SELECT trigger_time FROM reminders
		WHERE task_id = ? AND status = ?
		ORDER BY trigger_time ASC LIMIT 1`,
		taskID, string(model.ReminderPending),
	)
	if err == nil {
		_, err = tx.ExecContext(ctx,
			"UPDATE tasks SET reminder_at = ?, reminder_sent = 0 WHERE id = ?",
			trigger, taskID,
		)
		if err != nil {
			return fmt.Errorf("syncing reminder mirror for task %s: %w", taskID, err)
		}
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("finding earliest pending reminder for task %s: %w", taskID, err)
	}

	// No pending reminder left. If the most recent reminder was sent,
	// keep its trigger time visible to legacy consumers.
	var sentTrigger time.Time
	err = tx.GetContext(ctx, &sentTrigger, `
		SELECT trigger_time FROM reminders
		WHERE task_id = ? AND status = ?
		ORDER BY trigger_time DESC LIMIT 1`,
		taskID, string(model.ReminderSent),
	)
	if err == nil {
		_, err = tx.ExecContext(ctx,
			"UPDATE tasks SET reminder_at = ?, reminder_sent = 1 WHERE id = ?",
			sentTrigger, taskID,
		)
		if err != nil {
			return fmt.Errorf("syncing reminder mirror for task %s: %w", taskID, err)
		}
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("finding latest sent reminder for task %s: %w", taskID, err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE tasks SET reminder_at = NULL, reminder_sent = 0 WHERE id = ?",
		taskID,
	)
	if err != nil {
		return fmt.Errorf("clearing reminder mirror for task %s: %w", taskID, err)
	}
	return nil
}

// scanReminder scans a reminder row.
func scanReminder(row rowScanner) (model.Reminder, error) {
	var (
		r       model.Reminder
		channel string
		status  string
	)
	err := row.Scan(
		&r.ID, &r.TaskID, &r.UserID, &r.TriggerTime, &channel,
		&r.Message, &status, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return model.Reminder{}, err
	}
	r.Channel = model.ReminderChannel(channel)
	r.Status = model.ReminderStatus(status)
	return r, nil
}
