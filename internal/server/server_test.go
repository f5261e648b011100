package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/digest"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/pipeline"
	"github.com/nhle/taskboard/internal/server"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/tests/testutil"
)

const schedulerToken = "test-scheduler-token"

const validBriefing = `{
  "greeting": "Good morning, Ana!",
  "overdue_summary": "Nothing overdue.",
  "today_summary": "One task is due today.",
  "activity_summary": "Quiet day so far.",
  "focus_suggestion": "Start with the report."
}`

type fakeSummarizer struct {
	response string
	calls    int
}

func (f *fakeSummarizer) Summarize(context.Context, string) (string, error) {
	f.calls++
	if f.response == "" {
		return "", fmt.Errorf("summarizer unavailable")
	}
	return f.response, nil
}

type harness struct {
	store  *store.SQLiteStore
	router *gin.Engine
	sum    *fakeSummarizer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := testutil.NewTestStore(t)
	sum := &fakeSummarizer{response: validBriefing}

	dispatcher := notify.NewDispatcher(s, nil, time.UTC)
	assembler := digest.NewAssembler(s, sum, time.UTC, 50)
	digests := digest.NewService(s, assembler, model.DigestConfig{
		FreshnessHours: 12,
		MorningHour:    5,
		AfternoonHour:  16,
	}, time.UTC)
	pipe := pipeline.New(s, dispatcher, digests, nil, model.DispatchConfig{})

	srv := server.New(model.ServerConfig{
		Addr:           ":0",
		SchedulerToken: schedulerToken,
	}, s, pipe, digests)

	return &harness{store: s, router: srv.Router(), sum: sum}
}

func (h *harness) do(method, path string, headers map[string]string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func asUser(id string) map[string]string {
	return map[string]string{"X-User-ID": id}
}

func (h *harness) seedTask(t *testing.T, assignee *string) *model.Task {
	t.Helper()
	task, err := h.store.CreateTask(context.Background(), model.Task{
		Title:      "Ship the quarterly report",
		Priority:   model.PriorityHigh,
		AssignedTo: assignee,
		CreatedBy:  "user-ana",
	})
	require.NoError(t, err)
	return task
}

func TestSchedulerAuth(t *testing.T) {
	h := newHarness(t)

	t.Run("missing token", func(t *testing.T) {
		w := h.do(http.MethodPost, "/v1/jobs/reminders", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		w := h.do(http.MethodPost, "/v1/jobs/reminders",
			map[string]string{"X-Scheduler-Token": "nope"}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		w := h.do(http.MethodPost, "/v1/jobs/reminders",
			map[string]string{"X-Scheduler-Token": schedulerToken}, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var report pipeline.ReminderReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Zero(t, report.Processed)
	})

	t.Run("health is open", func(t *testing.T) {
		w := h.do(http.MethodGet, "/v1/jobs/health", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "pending")
	})
}

func TestRunDigestsValidatesType(t *testing.T) {
	h := newHarness(t)
	auth := map[string]string{"X-Scheduler-Token": schedulerToken}

	w := h.do(http.MethodPost, "/v1/jobs/digests?type=weekly", auth, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/v1/jobs/digests?type=morning", auth, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateReminderHandler(t *testing.T) {
	h := newHarness(t)
	task := h.seedTask(t, nil)

	body := server.CreateReminderRequest{
		TriggerTime: time.Now().Add(time.Hour),
		Channel:     model.ChannelPush,
	}
	path := "/v1/tasks/" + task.ID + "/reminders"

	t.Run("missing actor header", func(t *testing.T) {
		w := h.do(http.MethodPost, path, nil, body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("actor without task access", func(t *testing.T) {
		w := h.do(http.MethodPost, path, asUser("user-stranger"), body)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown task", func(t *testing.T) {
		w := h.do(http.MethodPost, "/v1/tasks/no-such-task/reminders", asUser("user-ana"), body)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("past trigger time", func(t *testing.T) {
		past := body
		past.TriggerTime = time.Now().Add(-time.Hour)
		w := h.do(http.MethodPost, path, asUser("user-ana"), past)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "TRIGGER_TIME_IN_PAST")
		assert.Contains(t, w.Body.String(), "reminder time must be in the future")
	})

	t.Run("created", func(t *testing.T) {
		w := h.do(http.MethodPost, path, asUser("user-ana"), body)
		require.Equal(t, http.StatusCreated, w.Code)

		var created model.Reminder
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, task.ID, created.TaskID)
		assert.Equal(t, model.ReminderPending, created.Status)
		assert.Equal(t, "user-ana", created.CreatedBy)
	})
}

func TestReminderLifecycleHandlers(t *testing.T) {
	h := newHarness(t)
	assignee := "user-ben"
	task := h.seedTask(t, &assignee)

	w := h.do(http.MethodPost, "/v1/tasks/"+task.ID+"/reminders", asUser("user-ben"),
		server.CreateReminderRequest{
			TriggerTime: time.Now().Add(time.Hour),
			Channel:     model.ChannelInApp,
		})
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.Reminder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	t.Run("reschedule", func(t *testing.T) {
		newTime := time.Now().Add(5 * time.Hour).UTC().Truncate(time.Second)
		w := h.do(http.MethodPatch, "/v1/reminders/"+created.ID, asUser("user-ben"),
			server.UpdateReminderRequest{TriggerTime: &newTime})
		require.Equal(t, http.StatusOK, w.Code)

		var updated model.Reminder
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.WithinDuration(t, newTime, updated.TriggerTime, time.Second)
	})

	t.Run("list by task with status filter", func(t *testing.T) {
		w := h.do(http.MethodGet, "/v1/tasks/"+task.ID+"/reminders?status=pending", asUser("user-ana"), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":1`)

		w = h.do(http.MethodGet, "/v1/tasks/"+task.ID+"/reminders?status=sent", asUser("user-ana"), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":0`)
	})

	t.Run("cancel then conflict", func(t *testing.T) {
		w := h.do(http.MethodPost, "/v1/reminders/"+created.ID+"/cancel", asUser("user-ben"), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = h.do(http.MethodPost, "/v1/reminders/"+created.ID+"/cancel", asUser("user-ben"), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "REMINDER_TERMINAL")
	})

	t.Run("delete", func(t *testing.T) {
		w := h.do(http.MethodDelete, "/v1/reminders/"+created.ID, asUser("user-ben"), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = h.do(http.MethodDelete, "/v1/reminders/"+created.ID, asUser("user-ben"), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLatestDigestHandler(t *testing.T) {
	h := newHarness(t)
	_, err := h.store.CreateUser(context.Background(), model.User{
		ID: "user-ana", Name: "Ana", Active: true,
	})
	require.NoError(t, err)

	t.Run("peek does not mark read", func(t *testing.T) {
		w := h.do(http.MethodGet, "/v1/users/user-ana/digest?peek=1", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp server.DigestResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.True(t, resp.HasDigest)
		require.NotNil(t, resp.Digest)
		assert.Nil(t, resp.Digest.ReadAt)
		assert.Equal(t, "Good morning, Ana!", resp.Digest.Payload.Greeting)
	})

	t.Run("fetch marks read and reuses", func(t *testing.T) {
		w := h.do(http.MethodGet, "/v1/users/user-ana/digest", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp server.DigestResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.True(t, resp.HasDigest)
		assert.NotNil(t, resp.Digest.ReadAt)

		// Both fetches were served from the single generated digest.
		assert.Equal(t, 1, h.sum.calls)
	})

	t.Run("failed generation degrades gracefully", func(t *testing.T) {
		w := h.do(http.MethodGet, "/v1/users/user-ghost/digest", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp server.DigestResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.HasDigest)
		assert.Nil(t, resp.Digest)
		assert.False(t, resp.NextSlot.IsZero())
	})
}

func TestMessageAndSubscriptionHandlers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.store.CreateMessage(ctx, model.Message{
		UserID: "user-ana",
		Title:  "Reminder: Ship the quarterly report",
	}))

	w := h.do(http.MethodGet, "/v1/users/user-ana/messages", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	var listing struct {
		Messages []model.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Messages, 1)

	w = h.do(http.MethodPost, "/v1/messages/"+listing.Messages[0].ID+"/read", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(http.MethodPost, "/v1/messages/no-such-message/read", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	t.Run("subscriptions", func(t *testing.T) {
		w := h.do(http.MethodPost, "/v1/users/user-ana/subscriptions", nil,
			server.SaveSubscriptionRequest{
				Endpoint: "https://push.example.com/sub/ana",
				Keys:     `{"p256dh":"k","auth":"a"}`,
			})
		require.Equal(t, http.StatusCreated, w.Code)

		var sub model.PushSubscription
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
		assert.NotEmpty(t, sub.ID)

		// Missing keys fails validation.
		w = h.do(http.MethodPost, "/v1/users/user-ana/subscriptions", nil,
			map[string]string{"endpoint": "https://push.example.com/sub/x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = h.do(http.MethodDelete, "/v1/subscriptions/"+sub.ID, nil, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
