package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTrackEvent(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := &Client{EventsURL: srv.URL, HTTPClient: &http.Client{Timeout: time.Second}}
	err := c.TrackEvent(context.Background(), 7, Event{Name: EventStartMembership, ProductID: "prod_1"})
	if err != nil {
		t.Fatalf("TrackEvent: %v", err)
	}
	if got["eventName"] != EventStartMembership {
		t.Fatalf("eventName = %v", got["eventName"])
	}
	if got["userId"] != float64(7) {
		t.Fatalf("userId = %v", got["userId"])
	}
	if got["productId"] != "prod_1" {
		t.Fatalf("productId = %v", got["productId"])
	}
}

func TestTrackEventUnconfiguredIsNoop(t *testing.T) {
	c := &Client{HTTPClient: &http.Client{Timeout: time.Second}}
	if err := c.TrackEvent(context.Background(), 1, Event{Name: EventCancelMembership}); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestTrackEventServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Client{EventsURL: srv.URL, HTTPClient: &http.Client{Timeout: time.Second}}
	if err := c.TrackEvent(context.Background(), 1, Event{Name: EventStartMembership}); err == nil {
		t.Fatal("expected error on 502 response")
	}
}
