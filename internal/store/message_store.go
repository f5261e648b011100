package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

// CreateMessage inserts an in-app message. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateMessage(ctx context.Context, m model.Message) error {
	if m.UserID == "" {
		return fmt.Errorf("message user_id must not be empty")
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, user_id, reminder_id, title, body, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.ReminderID, m.Title, m.Body, boolToInt(m.Read), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating message: %w", err)
	}
	return nil
}

// UnreadMessages retrieves all unread messages for a user, newest first.
func (s *SQLiteStore) UnreadMessages(ctx context.Context, userID string) ([]model.Message, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM messages
		WHERE user_id = ? AND read = 0
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying unread messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var (
			m       model.Message
			readInt int
		)
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.ReminderID, &m.Title, &m.Body,
			&readInt, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		m.Read = readInt != 0
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkMessageRead marks a single message as read.
func (s *SQLiteStore) MarkMessageRead(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE messages SET read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking message %s read: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	return nil
}

// SavePushSubscription upserts a push subscription keyed on the
// (user, endpoint) pair so re-registration from the same client replaces
// the stored key material.
func (s *SQLiteStore) SavePushSubscription(ctx context.Context, sub model.PushSubscription) (*model.PushSubscription, error) {
	if sub.UserID == "" || sub.Endpoint == "" {
		return nil, fmt.Errorf("subscription user_id and endpoint must not be empty")
	}
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO push_subscriptions (id, user_id, endpoint, keys, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, endpoint) DO UPDATE SET keys = excluded.keys`,
		sub.ID, sub.UserID, sub.Endpoint, sub.Keys, sub.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("saving push subscription: %w", err)
	}
	return &sub, nil
}

// SubscriptionsForUser retrieves all push subscriptions for a user.
func (s *SQLiteStore) SubscriptionsForUser(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM push_subscriptions WHERE user_id = ? ORDER BY created_at",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		var sub model.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.Keys, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning subscription row: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// DeletePushSubscription removes a push subscription by ID.
func (s *SQLiteStore) DeletePushSubscription(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM push_subscriptions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting push subscription %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("push subscription %s: %w", id, ErrNotFound)
	}
	return nil
}
