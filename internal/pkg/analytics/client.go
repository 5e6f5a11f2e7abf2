package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artvaultapp/ArtVault/internal/pkg/env"
)

// Membership lifecycle events emitted by the billing core.
const (
	EventStartMembership  = "user_start_membership"
	EventCancelMembership = "user_cancel_membership"
)

// Event is one tracked user action.
type Event struct {
	Name      string `json:"eventName"`
	ProductID string `json:"productId,omitempty"`
}

// Client forwards events to the analytics ingest endpoint. With no endpoint
// configured every call is a no-op, so tracking never blocks billing.
type Client struct {
	EventsURL  string
	HTTPClient *http.Client
}

func NewClientFromEnv() *Client {
	return &Client{
		EventsURL: strings.TrimSpace(env.GetEnv("ANALYTICS_EVENTS_URL", "")),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) TrackEvent(ctx context.Context, userID uint, event Event) error {
	if c.EventsURL == "" {
		return nil
	}

	payload, err := json.Marshal(struct {
		UserID uint `json:"userId"`
		Event
	}{UserID: userID, Event: event})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.EventsURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("analytics event failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}
