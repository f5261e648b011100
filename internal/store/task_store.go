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

// CreateUser inserts a new user. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateUser(ctx context.Context, u model.User) (*model.User, error) {
	if strings.TrimSpace(u.Name) == "" {
		return nil, fmt.Errorf("user name must not be empty")
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, active, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, boolToInt(u.Active), u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &u, nil
}

// GetUserByID retrieves a single user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM users WHERE id = ?", id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return &u, nil
}

// ActiveUsers retrieves all users with the active flag set, ordered by name.
func (s *SQLiteStore) ActiveUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM users WHERE active = 1 ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying active users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateTask inserts a new task. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateTask(ctx context.Context, t model.Task) (*model.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return nil, fmt.Errorf("task title must not be empty")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if t.Priority < 1 || t.Priority > 5 {
		t.Priority = model.PriorityMedium
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, title, description, priority,
			assigned_to, created_by, last_edited_by,
			due_date, completed, reminder_at, reminder_sent,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Priority,
		t.AssignedTo, t.CreatedBy, t.LastEditedBy,
		t.DueDate, boolToInt(t.Completed), t.ReminderAt, boolToInt(t.ReminderSent),
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return &t, nil
}

// UpdateTask updates an existing task by ID. The legacy reminder mirror
// columns are owned by the reminder mutations and left untouched here.
func (s *SQLiteStore) UpdateTask(ctx context.Context, t model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	t.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, priority = ?,
			assigned_to = ?, last_edited_by = ?,
			due_date = ?, completed = ?, updated_at = ?
		WHERE id = ?`,
		t.Title, t.Description, t.Priority,
		t.AssignedTo, t.LastEditedBy,
		t.DueDate, boolToInt(t.Completed), t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", t.ID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

// GetTaskByID retrieves a single task by ID.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM tasks WHERE id = ?", id)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return &t, nil
}

// OverdueTasks retrieves incomplete tasks due strictly before the given
// instant, ordered by due date ascending (most overdue first).
func (s *SQLiteStore) OverdueTasks(ctx context.Context, before time.Time) ([]model.Task, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM tasks
		WHERE completed = 0 AND due_date IS NOT NULL AND due_date < ?
		ORDER BY due_date ASC`,
		before.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying overdue tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// TasksDueBetween retrieves incomplete tasks due in [start, end), ordered
// most urgent first.
func (s *SQLiteStore) TasksDueBetween(ctx context.Context, start, end time.Time) ([]model.Task, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM tasks
		WHERE completed = 0 AND due_date IS NOT NULL
			AND due_date >= ? AND due_date < ?
		ORDER BY priority ASC, due_date ASC`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying tasks due between: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// TasksCompletedBetween retrieves completed tasks whose last update falls
// in [start, end).
func (s *SQLiteStore) TasksCompletedBetween(ctx context.Context, start, end time.Time) ([]model.Task, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM tasks
		WHERE completed = 1 AND updated_at >= ? AND updated_at < ?
		ORDER BY updated_at DESC`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying completed tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// LogActivity inserts an activity log entry. Generates a UUID if ID is empty.
func (s *SQLiteStore) LogActivity(ctx context.Context, e model.ActivityLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, user_id, user_name, action, task_id, task_title, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.UserName, e.Action, e.TaskID, e.TaskTitle, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// RecentActivity retrieves activity entries created at or after since,
// most recent first, capped at limit.
func (s *SQLiteStore) RecentActivity(ctx context.Context, since time.Time, limit int) ([]model.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM activity_log
		WHERE created_at >= ?
		ORDER BY created_at DESC
		LIMIT ?`,
		since.UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent activity: %w", err)
	}
	defer rows.Close()

	var entries []model.ActivityLogEntry
	for rows.Next() {
		var e model.ActivityLogEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.UserName, &e.Action,
			&e.TaskID, &e.TaskTitle, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// rowScanner abstracts sqlx.Row and sqlx.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUser scans a user row.
func scanUser(row rowScanner) (model.User, error) {
	var (
		u      model.User
		active int
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &active, &u.CreatedAt); err != nil {
		return model.User{}, err
	}
	u.Active = active != 0
	return u, nil
}

// scanTask scans a task row.
func scanTask(row rowScanner) (model.Task, error) {
	var (
		t            model.Task
		completed    int
		reminderSent int
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Priority,
		&t.AssignedTo, &t.CreatedBy, &t.LastEditedBy,
		&t.DueDate, &completed, &t.ReminderAt, &reminderSent,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, err
	}
	t.Completed = completed != 0
	t.ReminderSent = reminderSent != 0
	return t, nil
}

// collectTasks drains a task result set.
func collectTasks(rows *sqlx.Rows) ([]model.Task, error) {
	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
