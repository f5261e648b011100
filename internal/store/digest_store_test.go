package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/tests/testutil"
)

func TestLatestDigestFreshness(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	stale, err := s.CreateDigest(ctx, model.Digest{
		UserID:      "user-ana",
		DigestType:  model.DigestMorning,
		GeneratedAt: now.Add(-20 * time.Hour),
	})
	require.NoError(t, err)

	fresh, err := s.CreateDigest(ctx, model.Digest{
		UserID:      "user-ana",
		DigestType:  model.DigestMorning,
		GeneratedAt: now.Add(-2 * time.Hour),
		Payload: model.DigestPayload{
			Greeting:        "Good morning, Ana!",
			ActivitySummary: "Two tasks were completed yesterday.",
			FocusSuggestion: "Start with the quarterly report.",
		},
	})
	require.NoError(t, err)

	since := now.Add(-12 * time.Hour)

	got, err := s.LatestDigest(ctx, "user-ana", model.DigestMorning, since)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, fresh.ID, got.ID)
	assert.NotEqual(t, stale.ID, got.ID)
	assert.Equal(t, "Good morning, Ana!", got.Payload.Greeting)

	t.Run("type filter keeps slots independent", func(t *testing.T) {
		got, err := s.LatestDigest(ctx, "user-ana", model.DigestAfternoon, since)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("other users see nothing", func(t *testing.T) {
		got, err := s.LatestDigest(ctx, "user-ben", model.DigestMorning, since)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("everything stale returns nil", func(t *testing.T) {
		got, err := s.LatestDigest(ctx, "user-ana", model.DigestMorning, now.Add(-time.Hour))
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestMarkDigestReadIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	d, err := s.CreateDigest(ctx, model.Digest{
		UserID:      "user-ana",
		DigestType:  model.DigestAfternoon,
		GeneratedAt: now,
	})
	require.NoError(t, err)

	firstRead := now.Add(time.Minute)
	require.NoError(t, s.MarkDigestRead(ctx, d.ID, firstRead))

	got, err := s.LatestDigest(ctx, "user-ana", model.DigestAfternoon, now.Add(-time.Hour))
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.ReadAt)
	assert.WithinDuration(t, firstRead, *got.ReadAt, time.Second)

	// A second mark keeps the original read time.
	require.NoError(t, s.MarkDigestRead(ctx, d.ID, now.Add(time.Hour)))

	got, err = s.LatestDigest(ctx, "user-ana", model.DigestAfternoon, now.Add(-time.Hour))
	require.NoError(t, err)
	require.NotNil(t, got.ReadAt)
	assert.WithinDuration(t, firstRead, *got.ReadAt, time.Second)
}

func TestCreateDigestValidation(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.CreateDigest(ctx, model.Digest{DigestType: model.DigestMorning})
	assert.Error(t, err)

	_, err = s.CreateDigest(ctx, model.Digest{UserID: "user-ana", DigestType: "weekly"})
	assert.Error(t, err)
}
