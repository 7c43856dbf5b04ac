package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"
)

// ValidatePeriod rejects unknown rollup granularities before they reach the
// database.
func ValidatePeriod(period string) error {
	switch period {
	case "daily", "hourly":
		return nil
	}
	return errors.New("period must be 'daily' or 'hourly'")
}

// RunAggregation invokes the in-database rollup function, which recomputes
// and fully replaces the analytics rows for the given period granularity
// (optionally restricted to one source). Safe to call repeatedly: the replace
// semantics live in the function itself.
func RunAggregation(db *sql.DB, period string, sourceID *int) error {
	if err := ValidatePeriod(period); err != nil {
		return err
	}
	_, err := db.Exec("SELECT aggregate_analytics($1, $2)", period, sourceID)
	return err
}

// StartAggregationScheduler re-runs the daily rollup on a fixed interval
// until the context is canceled. An interval of zero disables scheduling.
func StartAggregationScheduler(ctx context.Context, db *sql.DB, interval time.Duration) {
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
				if err := RunAggregation(db, "daily", nil); err != nil {
					log.Println("Error running scheduled aggregation:", err)
				}
			}
		}
	}()
}
