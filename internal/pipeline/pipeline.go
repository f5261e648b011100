// Package pipeline holds the scheduler-facing entry points: scanning and
// dispatching due reminders, and batch digest generation. Neither runs as
// a long-lived process; an external scheduler invokes them synchronously
// and receives aggregate results.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/taskboard/internal/digest"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/push"
	"github.com/nhle/taskboard/internal/store"
)

// ReminderReport aggregates one reminder-processing run.
type ReminderReport struct {
	Processed int       `json:"processed"`
	Sent      int       `json:"sent"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

// DigestReport aggregates one digest-generation run.
type DigestReport struct {
	Users     int       `json:"users"`
	Generated int       `json:"generated"`
	Reused    int       `json:"reused"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

// Pipeline wires the scanner, dispatcher, and digest service together.
type Pipeline struct {
	store      store.Store
	dispatcher *notify.Dispatcher
	digests    *digest.Service
	transport  push.Transport

	reminderWorkers int
	digestWorkers   int
}

// New creates a pipeline. The transport may be nil; the digest-ready push
// notice is then skipped.
func New(s store.Store, d *notify.Dispatcher, ds *digest.Service, transport push.Transport, cfg model.DispatchConfig) *Pipeline {
	workers := cfg.ReminderWorkers
	if workers <= 0 {
		workers = 8
	}
	digestWorkers := cfg.DigestWorkers
	if digestWorkers <= 0 {
		digestWorkers = 4
	}
	return &Pipeline{
		store:           s,
		dispatcher:      d,
		digests:         ds,
		transport:       transport,
		reminderWorkers: workers,
		digestWorkers:   digestWorkers,
	}
}

// ProcessReminders scans for due reminders and dispatches each one
// independently through a bounded worker pool. Individual failures are
// counted, never raised; only a failing scan query aborts the run.
func (p *Pipeline) ProcessReminders(ctx context.Context) (ReminderReport, error) {
	now := time.Now()
	report := ReminderReport{Timestamp: now.UTC()}

	due, err := p.store.DueReminders(ctx, now)
	if err != nil {
		return report, fmt.Errorf("scanning due reminders: %w", err)
	}
	report.Processed = len(due)
	if len(due) == 0 {
		return report, nil
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(p.reminderWorkers)

	for _, r := range due {
		r := r
		g.Go(func() error {
			outcome, err := p.dispatcher.Dispatch(ctx, r)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("reminder dispatch aborted",
					"reminder_id", r.ID, "error", err)
				report.Failed++
				return nil
			}
			if outcome.Succeeded() {
				report.Sent++
			} else {
				report.Failed++
			}
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	slog.Info("reminder run complete",
		"processed", report.Processed,
		"sent", report.Sent,
		"failed", report.Failed)
	return report, nil
}

// GenerateDigests runs the freshness-gated digest generation for every
// active user. One user's failure is logged and skipped; the loop
// continues. On first-time creation a "briefing ready" push notice is
// sent when a transport is configured.
func (p *Pipeline) GenerateDigests(ctx context.Context, digestType model.DigestType) (DigestReport, error) {
	now := time.Now()
	report := DigestReport{Timestamp: now.UTC()}

	users, err := p.store.ActiveUsers(ctx)
	if err != nil {
		return report, fmt.Errorf("listing active users: %w", err)
	}
	report.Users = len(users)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(p.digestWorkers)

	for _, u := range users {
		u := u
		g.Go(func() error {
			d, isNew, err := p.digests.GetOrCreate(ctx, u.ID, digestType, now)

			mu.Lock()
			if err != nil {
				slog.Error("digest generation failed",
					"user_id", u.ID,
					"digest_type", digestType,
					"error", err)
				report.Failed++
				mu.Unlock()
				return nil
			}
			if isNew {
				report.Generated++
			} else {
				report.Reused++
			}
			mu.Unlock()

			if isNew {
				p.notifyDigestReady(ctx, u.ID, d)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("digest run complete",
		"digest_type", digestType,
		"users", report.Users,
		"generated", report.Generated,
		"reused", report.Reused,
		"failed", report.Failed)
	return report, nil
}

// notifyDigestReady sends a best-effort push notice that a new briefing
// exists. Failures are logged and dropped; the digest itself is already
// persisted.
func (p *Pipeline) notifyDigestReady(ctx context.Context, userID string, d *model.Digest) {
	if p.transport == nil {
		return
	}

	subs, err := p.store.SubscriptionsForUser(ctx, userID)
	if err != nil {
		slog.Warn("loading subscriptions for digest notice", "user_id", userID, "error", err)
		return
	}

	payload := push.Payload{
		Title: "Your briefing is ready",
		Body:  d.Payload.Greeting,
		Tag:   fmt.Sprintf("digest-%s-%s", d.DigestType, d.GeneratedAt.Format("2006-01-02")),
		Type:  push.TypeDigestReady,
	}

	for _, sub := range subs {
		if err := p.transport.Deliver(ctx, sub, payload); err != nil {
			slog.Warn("digest-ready push failed",
				"subscription_id", sub.ID, "error", err)
		}
	}
}
