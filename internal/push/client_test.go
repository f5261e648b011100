package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
)

func TestNewClientConfiguration(t *testing.T) {
	_, err := NewClient(model.PushConfig{Enabled: false})
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = NewClient(model.PushConfig{Enabled: true, Endpoint: "https://push.example.com"})
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = NewClient(model.PushConfig{Enabled: true, APIKey: "key"})
	assert.ErrorIs(t, err, ErrDisabled)

	c, err := NewClient(model.PushConfig{
		Enabled:  true,
		Endpoint: "https://push.example.com/",
		APIKey:   "key",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://push.example.com", c.endpoint)
}

func TestDeliver(t *testing.T) {
	var got deliverRequest
	var auth string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "/v1/deliver", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	c, err := NewClient(model.PushConfig{Enabled: true, Endpoint: ts.URL, APIKey: "secret"})
	require.NoError(t, err)

	sub := model.PushSubscription{
		Endpoint: "https://browser.example.com/ep",
		Keys:     `{"p256dh":"k","auth":"a"}`,
	}
	p := Payload{Title: "Reminder: Ship it", Body: "due today", Tag: "reminder-1", Type: TypeDueToday}

	require.NoError(t, c.Deliver(context.Background(), sub, p))
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, sub.Endpoint, got.Endpoint)
	assert.Equal(t, "Reminder: Ship it", got.Payload.Title)
	assert.Equal(t, TypeDueToday, got.Payload.Type)
}

func TestDeliverRetriesOnceOnRateLimit(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, err := NewClient(model.PushConfig{Enabled: true, Endpoint: ts.URL, APIKey: "secret"})
	require.NoError(t, err)

	err = c.Deliver(context.Background(), model.PushSubscription{Endpoint: "e"}, Payload{})
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
}

func TestDeliverServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "subscription expired", http.StatusGone)
	}))
	defer ts.Close()

	c, err := NewClient(model.PushConfig{Enabled: true, Endpoint: ts.URL, APIKey: "secret"})
	require.NoError(t, err)

	err = c.Deliver(context.Background(), model.PushSubscription{Endpoint: "e"}, Payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "410")
	assert.Contains(t, err.Error(), "subscription expired")
}
