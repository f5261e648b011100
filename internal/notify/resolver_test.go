package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
)

func TestResolveRecipient(t *testing.T) {
	explicit := "user-carla"
	assignee := "user-ana"

	t.Run("explicit recipient wins", func(t *testing.T) {
		got, err := notify.ResolveRecipient(
			model.Reminder{UserID: &explicit},
			model.Task{AssignedTo: &assignee},
		)
		require.NoError(t, err)
		assert.Equal(t, "user-carla", got)
	})

	t.Run("falls back to assignee", func(t *testing.T) {
		got, err := notify.ResolveRecipient(
			model.Reminder{},
			model.Task{AssignedTo: &assignee},
		)
		require.NoError(t, err)
		assert.Equal(t, "user-ana", got)
	})

	t.Run("empty explicit recipient is ignored", func(t *testing.T) {
		empty := ""
		got, err := notify.ResolveRecipient(
			model.Reminder{UserID: &empty},
			model.Task{AssignedTo: &assignee},
		)
		require.NoError(t, err)
		assert.Equal(t, "user-ana", got)
	})

	t.Run("nobody to notify", func(t *testing.T) {
		_, err := notify.ResolveRecipient(model.Reminder{}, model.Task{})
		assert.ErrorIs(t, err, notify.ErrNoRecipient)
	})
}
