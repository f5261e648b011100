package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// pastTense maps activity actions to the human-readable phrasing used in
// the transcript handed to the summarizer.
var pastTense = map[string]string{
	model.ActivityTaskCreated:   "created",
	model.ActivityTaskUpdated:   "updated",
	model.ActivityTaskCompleted: "completed",
	model.ActivityTaskAssigned:  "was assigned",
	model.ActivityCommentAdded:  "commented on",
}

// buildPrompt renders the natural-language prompt for one user's digest.
// It embeds the filtered task lists and a chronological activity
// transcript, and instructs the model to reply with the strict JSON
// schema extractBriefing expects.
func buildPrompt(
	user model.User,
	digestType model.DigestType,
	overdue, today, completed []model.Task,
	activity []model.ActivityLogEntry,
	loc *time.Location,
) string {
	var sb strings.Builder

	timeOfDay := "morning"
	if digestType == model.DigestAfternoon {
		timeOfDay = "afternoon"
	}

	sb.WriteString(fmt.Sprintf(
		"You are preparing %s's %s briefing for a task management platform.\n\n",
		user.Name, timeOfDay,
	))

	sb.WriteString(fmt.Sprintf("Overdue tasks (%d):\n", len(overdue)))
	writeTaskList(&sb, overdue, loc)

	sb.WriteString(fmt.Sprintf("\nTasks due today (%d):\n", len(today)))
	writeTaskList(&sb, today, loc)

	sb.WriteString(fmt.Sprintf("\nCompleted yesterday (%d):\n", len(completed)))
	writeTaskList(&sb, completed, loc)

	sb.WriteString("\nTeam activity in the last 24 hours:\n")
	writeActivityTranscript(&sb, activity, loc)

	sb.WriteString("\nReply with a single JSON object and nothing else, ")
	sb.WriteString("using exactly these keys:\n")
	sb.WriteString(`{"greeting": "...", "overdue_summary": "...", ` +
		`"today_summary": "...", "activity_summary": "...", ` +
		`"focus_suggestion": "..."}` + "\n")
	sb.WriteString("Every value must be a short, specific, non-empty sentence. ")
	sb.WriteString("The focus_suggestion names the single most important thing ")
	sb.WriteString("to work on next and why.")

	return sb.String()
}

// writeTaskList renders one task per line, or a placeholder when empty.
func writeTaskList(sb *strings.Builder, tasks []model.Task, loc *time.Location) {
	if len(tasks) == 0 {
		sb.WriteString("  (none)\n")
		return
	}
	for _, t := range tasks {
		line := fmt.Sprintf("  - %s (priority %d", t.Title, t.Priority)
		if t.DueDate != nil {
			line += ", due " + t.DueDate.In(loc).Format("Mon Jan 2")
		}
		line += ")"
		sb.WriteString(line + "\n")
	}
}

// writeActivityTranscript renders activity entries oldest first so the
// model reads them chronologically. Entries arrive newest first from the
// store.
func writeActivityTranscript(sb *strings.Builder, activity []model.ActivityLogEntry, loc *time.Location) {
	if len(activity) == 0 {
		sb.WriteString("  (no recent activity)\n")
		return
	}
	for i := len(activity) - 1; i >= 0; i-- {
		e := activity[i]
		verb, ok := pastTense[e.Action]
		if !ok {
			verb = strings.ReplaceAll(e.Action, "_", " ")
		}

		line := fmt.Sprintf("  %s - %s %s",
			e.CreatedAt.In(loc).Format("15:04"), e.UserName, verb)
		if e.TaskTitle != "" {
			line += fmt.Sprintf(" %q", e.TaskTitle)
		}
		sb.WriteString(line + "\n")
	}
}
