package payment

import (
	"context"
	"log"
	"time"
)

// StartCatalogSyncScheduler runs a full catalog sync immediately and then
// on every tick until ctx is canceled. Sync failures are logged and the
// next tick retries.
func (s *Service) StartCatalogSyncScheduler(ctx context.Context, interval time.Duration) {
	go func() {
		run := func() {
			syncCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()
			if err := s.SyncCatalog(syncCtx); err != nil {
				log.Printf("[Payment] catalog sync failed: %v", err)
			}
		}

		run()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}
