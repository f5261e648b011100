package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/push"
	"github.com/nhle/taskboard/internal/store"
)

// ErrNoSubscriptions is recorded as a push-channel failure when the
// recipient has no registered push endpoints.
var ErrNoSubscriptions = errors.New("recipient has no push subscriptions")

// Dispatcher delivers a due reminder through its configured channels and
// applies the resulting status transition.
type Dispatcher struct {
	store     store.Store
	transport push.Transport
	loc       *time.Location
}

// NewDispatcher creates a dispatcher. The transport may be nil when push
// delivery is disabled; push attempts are then recorded as failures
// rather than silently skipped.
func NewDispatcher(s store.Store, transport push.Transport, loc *time.Location) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{store: s, transport: transport, loc: loc}
}

// Dispatch attempts delivery of one reminder and returns the per-channel
// outcome. Channel failures are captured in the outcome and never
// propagate; the returned error is reserved for the unit-aborting cases
// (task load or recipient resolution failed, or the status write failed).
//
// If at least one channel succeeds the reminder transitions to sent.
// If every attempted channel fails it stays pending and the next scan
// retries it. The transition is written strictly after every channel
// attempt has resolved.
//
// A task completed after the reminder was created still gets its
// reminder delivered; completion is only checked at creation time.
func (d *Dispatcher) Dispatch(ctx context.Context, r model.Reminder) (Outcome, error) {
	outcome := Outcome{ReminderID: r.ID}
	now := time.Now()

	task, err := d.store.GetTaskByID(ctx, r.TaskID)
	if err != nil {
		return outcome, fmt.Errorf("loading task for reminder %s: %w", r.ID, err)
	}

	recipient, err := ResolveRecipient(r, *task)
	if err != nil {
		return outcome, fmt.Errorf("resolving recipient for reminder %s: %w", r.ID, err)
	}
	outcome.Recipient = recipient

	payload := d.buildPayload(r, *task, now)

	if r.Channel == model.ChannelPush || r.Channel == model.ChannelBoth {
		outcome.Results = append(outcome.Results, ChannelResult{
			Channel: model.ChannelPush,
			Err:     d.deliverPush(ctx, recipient, payload),
		})
	}

	if r.Channel == model.ChannelInApp || r.Channel == model.ChannelBoth {
		outcome.Results = append(outcome.Results, ChannelResult{
			Channel: model.ChannelInApp,
			Err:     d.deliverInApp(ctx, r, recipient, payload),
		})
	}

	for _, res := range outcome.Failures() {
		slog.Warn("reminder channel delivery failed",
			"reminder_id", r.ID,
			"channel", res.Channel,
			"error", res.Err)
	}

	if outcome.Succeeded() {
		if err := d.store.MarkReminderSent(ctx, r.ID, now); err != nil {
			return outcome, fmt.Errorf("marking reminder %s sent: %w", r.ID, err)
		}
	}

	return outcome, nil
}

// deliverPush fans the payload out to every subscription the recipient
// holds. The channel succeeds when at least one endpoint accepted it.
func (d *Dispatcher) deliverPush(ctx context.Context, recipient string, p push.Payload) error {
	if d.transport == nil {
		return push.ErrDisabled
	}

	subs, err := d.store.SubscriptionsForUser(ctx, recipient)
	if err != nil {
		return fmt.Errorf("loading subscriptions for %s: %w", recipient, err)
	}
	if len(subs) == 0 {
		return ErrNoSubscriptions
	}

	var lastErr error
	delivered := 0
	for _, sub := range subs {
		if err := d.transport.Deliver(ctx, sub, p); err != nil {
			lastErr = err
			slog.Warn("push delivery failed",
				"subscription_id", sub.ID,
				"error", err)
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return fmt.Errorf("all %d push endpoints failed: %w", len(subs), lastErr)
	}
	return nil
}

// deliverInApp writes an in-app message addressed to the recipient.
func (d *Dispatcher) deliverInApp(ctx context.Context, r model.Reminder, recipient string, p push.Payload) error {
	reminderID := r.ID
	msg := model.Message{
		UserID:     recipient,
		ReminderID: &reminderID,
		Title:      p.Title,
		Body:       p.Body,
		CreatedAt:  time.Now(),
	}
	if err := d.store.CreateMessage(ctx, msg); err != nil {
		return fmt.Errorf("writing in-app message: %w", err)
	}
	return nil
}

// buildPayload renders the notification content for a reminder.
func (d *Dispatcher) buildPayload(r model.Reminder, task model.Task, now time.Time) push.Payload {
	body := r.Message
	if body == "" {
		if task.DueDate != nil {
			body = fmt.Sprintf("%q is due %s", task.Title,
				task.DueDate.In(d.loc).Format("Mon Jan 2 at 15:04"))
		} else {
			body = fmt.Sprintf("Reminder for %q", task.Title)
		}
	}

	return push.Payload{
		Title: "Reminder: " + task.Title,
		Body:  body,
		Tag:   "reminder-" + r.ID,
		Type:  d.classify(task, now),
	}
}

// classify maps the task's due date onto a notification type so the
// client can vary urgency. Day boundaries use the platform's zone.
func (d *Dispatcher) classify(task model.Task, now time.Time) push.NotificationType {
	if task.DueDate == nil {
		return push.TypeDueSoon
	}

	local := now.In(d.loc)
	todayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, d.loc)
	tomorrowStart := todayStart.AddDate(0, 0, 1)

	due := task.DueDate.In(d.loc)
	switch {
	case due.Before(todayStart):
		return push.TypeOverdue
	case due.Before(tomorrowStart):
		return push.TypeDueToday
	default:
		return push.TypeDueSoon
	}
}
