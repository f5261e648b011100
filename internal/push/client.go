package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// ErrDisabled is returned by NewClient when push delivery is enabled in
// configuration but the transport credentials are missing. Delivery must
// fail fast at startup rather than silently dropping notifications later.
var ErrDisabled = errors.New("push transport is not configured")

// Transport delivers a payload to a single subscription.
type Transport interface {
	Deliver(ctx context.Context, sub model.PushSubscription, p Payload) error
}

// Client is a thin HTTP client for the external push delivery service.
// It posts one JSON envelope per subscription and retries once on 429.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a push client from configuration. It returns
// ErrDisabled when push is enabled but endpoint or API key is absent, so
// a misconfigured deployment fails at startup instead of at dispatch time.
func NewClient(cfg model.PushConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if strings.TrimSpace(cfg.Endpoint) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("push enabled without endpoint or api key: %w", ErrDisabled)
	}

	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

// deliverRequest is the envelope the transport accepts.
type deliverRequest struct {
	Endpoint string  `json:"endpoint"`
	Keys     string  `json:"keys"`
	Payload  Payload `json:"payload"`
}

// Deliver posts the payload to the transport for a single subscription.
// Any non-2xx response is returned as an error; the caller records it
// per channel and never escalates it past the affected reminder.
func (c *Client) Deliver(ctx context.Context, sub model.PushSubscription, p Payload) error {
	body, err := json.Marshal(deliverRequest{
		Endpoint: sub.Endpoint,
		Keys:     sub.Keys,
		Payload:  p,
	})
	if err != nil {
		return fmt.Errorf("marshaling push request: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost, c.endpoint+"/v1/deliver", bytes.NewReader(body),
		)
		if err != nil {
			return fmt.Errorf("creating push request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("calling push transport: %w", err)
		}

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode == http.StatusTooManyRequests && attempt == 0 {
			select {
			case <-time.After(retryAfter):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return fmt.Errorf("push transport error (%d): %s",
			resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return fmt.Errorf("push transport kept rate limiting")
}
