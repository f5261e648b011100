package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

// CreateDigest persists a generated digest. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateDigest(ctx context.Context, d model.Digest) (*model.Digest, error) {
	if d.UserID == "" {
		return nil, fmt.Errorf("digest user_id must not be empty")
	}
	if !model.ValidDigestType(d.DigestType) {
		return nil, fmt.Errorf("unknown digest type %q", d.DigestType)
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(d.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling digest payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO digests (id, user_id, digest_type, generated_at, read_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, string(d.DigestType), d.GeneratedAt.UTC(), d.ReadAt, string(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("creating digest: %w", err)
	}
	return &d, nil
}

// LatestDigest retrieves the most recent digest for the user and type
// generated at or after since. Returns nil when none is fresh enough.
func (s *SQLiteStore) LatestDigest(ctx context.Context, userID string, digestType model.DigestType, since time.Time) (*model.Digest, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT * FROM digests
		WHERE user_id = ? AND digest_type = ? AND generated_at >= ?
		ORDER BY generated_at DESC LIMIT 1`,
		userID, string(digestType), since.UTC(),
	)

	d, err := scanDigest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest digest for user %s: %w", userID, err)
	}
	return &d, nil
}

// MarkDigestRead sets read_at on a digest if it is still unset. Calling it
// again is a no-op, so the first observed read time sticks.
func (s *SQLiteStore) MarkDigestRead(ctx context.Context, id string, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE digests SET read_at = ? WHERE id = ? AND read_at IS NULL",
		now.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("marking digest %s read: %w", id, err)
	}
	return nil
}

// scanDigest scans a digest row, unmarshaling the stored payload.
func scanDigest(row rowScanner) (model.Digest, error) {
	var (
		d          model.Digest
		digestType string
		payload    string
	)
	err := row.Scan(&d.ID, &d.UserID, &digestType, &d.GeneratedAt, &d.ReadAt, &payload)
	if err != nil {
		return model.Digest{}, err
	}
	d.DigestType = model.DigestType(digestType)

	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &d.Payload); err != nil {
			return model.Digest{}, fmt.Errorf("unmarshaling digest payload: %w", err)
		}
	}
	return d, nil
}
