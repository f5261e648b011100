package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

// Assembler gathers one user's task and activity state, windowed by
// calendar day in the platform's time zone, and turns it into a
// structured briefing via the summarization service.
type Assembler struct {
	store         store.Store
	summarizer    Summarizer
	loc           *time.Location
	activityLimit int
}

// NewAssembler creates an assembler. activityLimit caps how many activity
// entries feed one digest; values <= 0 fall back to 50.
func NewAssembler(s store.Store, sum Summarizer, loc *time.Location, activityLimit int) *Assembler {
	if loc == nil {
		loc = time.UTC
	}
	if activityLimit <= 0 {
		activityLimit = 50
	}
	return &Assembler{store: s, summarizer: sum, loc: loc, activityLimit: activityLimit}
}

// Assemble builds the digest payload for one user as of the given
// instant. Any of the four underlying reads failing aborts this user's
// digest; no partial briefing is ever produced. A summarizer response
// missing the expected structure is also a hard failure, logged with the
// raw response for diagnosis.
func (a *Assembler) Assemble(ctx context.Context, user model.User, digestType model.DigestType, now time.Time) (model.DigestPayload, error) {
	w := DayWindow(now, a.loc)

	var (
		overdue   []model.Task
		today     []model.Task
		completed []model.Task
		activity  []model.ActivityLogEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		overdue, err = a.store.OverdueTasks(gctx, w.TodayStart)
		return err
	})
	g.Go(func() error {
		var err error
		today, err = a.store.TasksDueBetween(gctx, w.TodayStart, w.TodayEnd)
		return err
	})
	g.Go(func() error {
		var err error
		completed, err = a.store.TasksCompletedBetween(gctx, w.YesterdayStart, w.TodayStart)
		return err
	})
	g.Go(func() error {
		var err error
		activity, err = a.store.RecentActivity(gctx, now.Add(-24*time.Hour), a.activityLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.DigestPayload{}, fmt.Errorf("gathering digest inputs for user %s: %w", user.ID, err)
	}

	overdue = filterRelevant(overdue, user.ID)
	today = filterRelevant(today, user.ID)

	prompt := buildPrompt(user, digestType, overdue, today, completed, activity, a.loc)

	raw, err := a.summarizer.Summarize(ctx, prompt)
	if err != nil {
		return model.DigestPayload{}, fmt.Errorf("summarizing digest for user %s: %w", user.ID, err)
	}

	b, err := extractBriefing(raw)
	if err != nil {
		slog.Error("digest summarizer returned unusable response",
			"user_id", user.ID,
			"error", err,
			"raw_response", raw)
		return model.DigestPayload{}, fmt.Errorf("extracting briefing for user %s: %w", user.ID, err)
	}

	return model.DigestPayload{
		Greeting: b.Greeting,
		OverdueTasks: model.DigestSection{
			Count:   len(overdue),
			Summary: b.OverdueSummary,
			Tasks:   taskRefs(overdue),
		},
		TodaysTasks: model.DigestSection{
			Count:   len(today),
			Summary: b.TodaySummary,
			Tasks:   taskRefs(today),
		},
		ActivitySummary: b.ActivitySummary,
		FocusSuggestion: b.FocusSuggestion,
	}, nil
}

// filterRelevant keeps tasks assigned to the user, created by them, or
// unassigned.
func filterRelevant(tasks []model.Task, userID string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		switch {
		case t.AssignedTo != nil && *t.AssignedTo == userID:
			out = append(out, t)
		case t.AssignedTo == nil:
			out = append(out, t)
		case t.CreatedBy == userID:
			out = append(out, t)
		}
	}
	return out
}

// taskRefs converts tasks to the compact references embedded in a digest.
func taskRefs(tasks []model.Task) []model.DigestRef {
	refs := make([]model.DigestRef, 0, len(tasks))
	for _, t := range tasks {
		refs = append(refs, model.DigestRef{
			ID:       t.ID,
			Title:    t.Title,
			Priority: t.Priority,
			DueDate:  t.DueDate,
		})
	}
	return refs
}
