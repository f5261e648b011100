package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/tests/testutil"
)

func createTask(t *testing.T, s *store.SQLiteStore, mutate func(*model.Task)) *model.Task {
	t.Helper()

	task := model.Task{
		Title:     "Ship the quarterly report",
		Priority:  model.PriorityHigh,
		CreatedBy: "user-ana",
	}
	if mutate != nil {
		mutate(&task)
	}

	created, err := s.CreateTask(context.Background(), task)
	require.NoError(t, err)
	return created
}

func TestCreateReminderValidation(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	task := createTask(t, s, nil)

	t.Run("past trigger time rejected", func(t *testing.T) {
		_, err := s.CreateReminder(ctx, model.Reminder{
			TaskID:      task.ID,
			TriggerTime: time.Now().Add(-time.Minute),
			Channel:     model.ChannelPush,
			CreatedBy:   "user-ana",
		})
		assert.ErrorIs(t, err, store.ErrReminderTimeInPast)
	})

	t.Run("completed task rejected", func(t *testing.T) {
		done := createTask(t, s, func(task *model.Task) {
			task.Completed = true
		})
		_, err := s.CreateReminder(ctx, model.Reminder{
			TaskID:      done.ID,
			TriggerTime: time.Now().Add(time.Hour),
			Channel:     model.ChannelPush,
			CreatedBy:   "user-ana",
		})
		assert.ErrorIs(t, err, store.ErrTaskCompleted)
	})

	t.Run("missing task rejected", func(t *testing.T) {
		_, err := s.CreateReminder(ctx, model.Reminder{
			TaskID:      "no-such-task",
			TriggerTime: time.Now().Add(time.Hour),
			Channel:     model.ChannelPush,
			CreatedBy:   "user-ana",
		})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unknown channel rejected", func(t *testing.T) {
		_, err := s.CreateReminder(ctx, model.Reminder{
			TaskID:      task.ID,
			TriggerTime: time.Now().Add(time.Hour),
			Channel:     "carrier_pigeon",
			CreatedBy:   "user-ana",
		})
		assert.Error(t, err)
	})
}

func TestReminderMirrorTracksEarliestPending(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	task := createTask(t, s, nil)

	later, err := s.CreateReminder(ctx, model.Reminder{
		TaskID:      task.ID,
		TriggerTime: time.Now().Add(4 * time.Hour),
		Channel:     model.ChannelPush,
		CreatedBy:   "user-ana",
	})
	require.NoError(t, err)

	earlier, err := s.CreateReminder(ctx, model.Reminder{
		TaskID:      task.ID,
		TriggerTime: time.Now().Add(time.Hour),
		Channel:     model.ChannelPush,
		CreatedBy:   "user-ana",
	})
	require.NoError(t, err)

	got, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReminderAt)
	assert.WithinDuration(t, earlier.TriggerTime, *got.ReminderAt, time.Second)
	assert.False(t, got.ReminderSent)

	// Cancelling the earliest moves the mirror to the next pending one.
	require.NoError(t, s.CancelReminder(ctx, earlier.ID))

	got, err = s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReminderAt)
	assert.WithinDuration(t, later.TriggerTime, *got.ReminderAt, time.Second)

	// Deleting the last pending reminder clears the mirror.
	require.NoError(t, s.DeleteReminder(ctx, later.ID))

	got, err = s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReminderAt)
	assert.False(t, got.ReminderSent)
}

func TestDueRemindersScan(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	task := createTask(t, s, nil)

	due, err := s.CreateReminder(ctx, model.Reminder{
		TaskID:      task.ID,
		TriggerTime: time.Now().Add(time.Hour),
		Channel:     model.ChannelBoth,
		CreatedBy:   "user-ana",
	})
	require.NoError(t, err)

	notYet, err := s.CreateReminder(ctx, model.Reminder{
		TaskID:      task.ID,
		TriggerTime: time.Now().Add(48 * time.Hour),
		Channel:     model.ChannelPush,
		CreatedBy:   "user-ana",
	})
	require.NoError(t, err)

	cancelled, err := s.CreateReminder(ctx, model.Reminder{
		TaskID:      task.ID,
		TriggerTime: time.Now().Add(90 * time.Minute),
		Channel:     model.ChannelPush,
		CreatedBy:   "user-ana",
	})
	require.NoError(t, err)
	require.NoError(t, s.CancelReminder(ctx, cancelled.ID))

	scanAt := time.Now().Add(2 * time.Hour)
	found, err := s.DueReminders(ctx, scanAt)
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, due.ID, found[0].ID)
	assert.NotEqual(t, notYet.ID, found[0].ID)

	// After the transition to sent the reminder never reappears.
	require.NoError(t, s.MarkReminderSent(ctx, due.ID, scanAt))

	found, err = s.DueReminders(ctx, scanAt)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestMarkReminderSent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	task := createTask(t, s, nil)

	r, err := s.CreateReminder(ctx, model.Reminder{
		TaskID:      task.ID,
		TriggerTime: time.Now().Add(time.Hour),
		Channel:     model.ChannelInApp,
		CreatedBy:   "user-ana",
	})
	require.NoError(t, err)

	now := time.Now().Add(2 * time.Hour)
	require.NoError(t, s.MarkReminderSent(ctx, r.ID, now))

	got, err := s.GetReminderByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderSent, got.Status)

	// The legacy mirror keeps the sent trigger time with the flag set.
	taskAfter, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, taskAfter.ReminderAt)
	assert.True(t, taskAfter.ReminderSent)

	// Marking an already-sent reminder is tolerated.
	require.NoError(t, s.MarkReminderSent(ctx, r.ID, now))
}

func TestUpdateReminder(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	task := createTask(t, s, nil)

	r, err := s.CreateReminder(ctx, model.Reminder{
		TaskID:      task.ID,
		TriggerTime: time.Now().Add(time.Hour),
		Channel:     model.ChannelPush,
		CreatedBy:   "user-ana",
	})
	require.NoError(t, err)

	r.TriggerTime = time.Now().Add(3 * time.Hour)
	r.Message = "Budget review starts soon"
	r.Channel = model.ChannelBoth
	require.NoError(t, s.UpdateReminder(ctx, *r))

	got, err := s.GetReminderByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Budget review starts soon", got.Message)
	assert.Equal(t, model.ChannelBoth, got.Channel)

	t.Run("past reschedule rejected", func(t *testing.T) {
		bad := *got
		bad.TriggerTime = time.Now().Add(-time.Hour)
		assert.ErrorIs(t, s.UpdateReminder(ctx, bad), store.ErrReminderTimeInPast)
	})

	t.Run("message edit without reschedule on lapsed trigger", func(t *testing.T) {
		lapsed, err := s.CreateReminder(ctx, model.Reminder{
			TaskID:      task.ID,
			TriggerTime: time.Now().Add(20 * time.Millisecond),
			Channel:     model.ChannelPush,
			CreatedBy:   "user-ana",
		})
		require.NoError(t, err)
		time.Sleep(50 * time.Millisecond)

		// The trigger has passed but the reminder is still pending; an
		// edit that keeps the trigger untouched must go through.
		stored, err := s.GetReminderByID(ctx, lapsed.ID)
		require.NoError(t, err)

		edit := *stored
		edit.Message = "Still waiting on the final numbers"
		edit.Channel = model.ChannelInApp
		require.NoError(t, s.UpdateReminder(ctx, edit))

		after, err := s.GetReminderByID(ctx, lapsed.ID)
		require.NoError(t, err)
		assert.Equal(t, "Still waiting on the final numbers", after.Message)
		assert.Equal(t, model.ChannelInApp, after.Channel)
		assert.True(t, after.TriggerTime.Equal(stored.TriggerTime))

		// Moving the trigger still demands a future instant.
		edit.TriggerTime = time.Now().Add(-time.Minute)
		assert.ErrorIs(t, s.UpdateReminder(ctx, edit), store.ErrReminderTimeInPast)
	})

	t.Run("terminal reminder rejected", func(t *testing.T) {
		require.NoError(t, s.CancelReminder(ctx, got.ID))

		stale := *got
		stale.TriggerTime = time.Now().Add(time.Hour)
		assert.ErrorIs(t, s.UpdateReminder(ctx, stale), store.ErrReminderTerminal)
		assert.ErrorIs(t, s.CancelReminder(ctx, got.ID), store.ErrReminderTerminal)
	})
}

func TestReminderCounts(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	task := createTask(t, s, nil)

	for _, offset := range []time.Duration{30 * time.Minute, 45 * time.Minute, 72 * time.Hour} {
		_, err := s.CreateReminder(ctx, model.Reminder{
			TaskID:      task.ID,
			TriggerTime: time.Now().Add(offset),
			Channel:     model.ChannelPush,
			CreatedBy:   "user-ana",
		})
		require.NoError(t, err)
	}

	pending, dueSoon, err := s.ReminderCounts(ctx, time.Now(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, pending)
	assert.Equal(t, 2, dueSoon)
}
