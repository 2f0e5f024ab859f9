package workers

import (
	"context"
	"log"
	"time"

	"github.com/mcmanyika/cashround-sub000/services"
)

// PollPools re-syncs every factory pool on a fixed interval. Opt-in via
// POOL_SYNC_INTERVAL; the default deployment stays pull-only, with the
// frontend triggering syncs through the HTTP surface.
func PollPools(ctx context.Context, sync *services.SyncService, interval time.Duration) {
	log.Printf("🔁 Pool re-sync worker running (every %s)", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Pool re-sync worker stopped")
			return
		case <-ticker.C:
			results, err := sync.SyncAllPools(ctx)
			if err != nil {
				log.Printf("❌ Pool re-sync failed: %v", err)
				continue
			}

			failed := 0
			for _, r := range results {
				if r.Error != "" {
					failed++
				}
			}
			log.Printf("✅ Re-synced %d pool(s), %d failure(s)", len(results)-failed, failed)
		}
	}
}
