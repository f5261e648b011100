package notify

import (
	"errors"

	"github.com/nhle/taskboard/internal/model"
)

// ErrNoRecipient is returned when neither the reminder nor its task names
// someone to notify.
var ErrNoRecipient = errors.New("reminder has no resolvable recipient")

// ResolveRecipient returns the user to notify for a reminder.
//
// Precedence: an explicit reminder recipient always wins; otherwise the
// task's current assignee is used, looked up live at dispatch time so a
// reassignment after reminder creation changes who is notified.
func ResolveRecipient(r model.Reminder, task model.Task) (string, error) {
	if r.UserID != nil && *r.UserID != "" {
		return *r.UserID, nil
	}
	if task.AssignedTo != nil && *task.AssignedTo != "" {
		return *task.AssignedTo, nil
	}
	return "", ErrNoRecipient
}
