package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// ResolveOrCreateSource maps a producer's source name to its stable id,
// registering the source on first use. Two concurrent first-time calls with
// the same name race on the insert; the loser hits the uniqueness constraint
// and falls back to a lookup, so the caller never sees a duplicate or a
// spurious failure.
func ResolveOrCreateSource(db *sql.DB, name, sourceType string) (int, error) {
	var id int
	err := db.QueryRow("SELECT id FROM event_sources WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	description := fmt.Sprintf("Auto-registered source: %s", name)
	err = db.QueryRow(
		"INSERT INTO event_sources (name, type, description) VALUES ($1, $2, $3) RETURNING id",
		name, sourceType, description,
	).Scan(&id)
	if err == nil {
		return id, nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		// Lost the race to a concurrent first use; the row exists now.
		if err := db.QueryRow("SELECT id FROM event_sources WHERE name = $1", name).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	return 0, err
}
