package cache

import (
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/melanoai/event-clocking/models"
)

const (
	keyPrefix = "recent:"
	entryTTL  = time.Hour
)

// RecentEvents is the best-effort buffer of freshly ingested events. Writes
// happen on the ingest path but are fire-and-forget: a cache failure is
// logged by the caller and never fails the request. Entries expire on their
// own; the database stays the source of truth.
type RecentEvents struct {
	db *badger.DB
}

func NewRecentEvents(db *badger.DB) *RecentEvents {
	return &RecentEvents{db: db}
}

// Store keeps one event for the TTL window, keyed so that iteration in
// reverse order returns newest first.
func (c *RecentEvents) Store(event models.ClockEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	key := []byte(fmt.Sprintf("%s%020d", keyPrefix, event.ID))
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, value).WithTTL(entryTTL)
		return txn.SetEntry(entry)
	})
}

// Recent returns up to limit buffered events, newest first.
func (c *RecentEvents) Recent(limit int) ([]models.ClockEvent, error) {
	var events []models.ClockEvent

	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration must seek past the largest possible key.
		seek := []byte(keyPrefix + "99999999999999999999")
		for it.Seek(seek); it.Valid() && len(events) < limit; it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var event models.ClockEvent
				if err := json.Unmarshal(value, &event); err != nil {
					return err
				}
				events = append(events, event)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}
