package services

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/melanoai/event-clocking/stream"
)

// StartStatsHeartbeat pushes a stats_update frame to every connected
// dashboard session on a fixed interval until the context is canceled.
func StartStatsHeartbeat(ctx context.Context, db *sql.DB, hub *stream.Hub, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if hub.SubscriberCount() == 0 {
					continue
				}
				count, last, err := RecentWindowStats(db)
				if err != nil {
					log.Println("Error querying heartbeat stats:", err)
					continue
				}
				hub.Broadcast(stream.StatsUpdateMessage(count, last))
			}
		}
	}()
}
