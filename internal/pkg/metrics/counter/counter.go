package counter

import (
	"context"
	"strconv"

	"github.com/artvaultapp/ArtVault/internal/pkg/cache"
)

const webhookEventsKey = "billing:counters:webhook_events"

// AddWebhookEvent increments the received counter for a provider event type
// in Redis. Counters are observational; failures are the caller's choice to
// ignore.
func AddWebhookEvent(eventType string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookEventsKey, eventType, 1).Err()
}

// WebhookEventCounts returns the per-event-type received counters.
func WebhookEventCounts() (map[string]int64, error) {
	ctx := context.Background()
	raw, err := cache.GetClient().HGetAll(ctx, webhookEventsKey).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(raw))
	for eventType, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		counts[eventType] = n
	}
	return counts, nil
}
