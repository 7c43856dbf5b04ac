package cache

import (
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melanoai/event-clocking/models"
)

func openTestCache(t *testing.T) *RecentEvents {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRecentEvents(db)
}

func testEvent(id int64, eventType string) models.ClockEvent {
	return models.ClockEvent{
		ID:        id,
		EventType: eventType,
		Currency:  "EUR",
		EventData: map[string]interface{}{},
		Timestamp: time.Now().UTC(),
	}
}

func TestRecentEventsNewestFirst(t *testing.T) {
	recents := openTestCache(t)

	require.NoError(t, recents.Store(testEvent(1, "lead_captured")))
	require.NoError(t, recents.Store(testEvent(2, "bot_interaction")))
	require.NoError(t, recents.Store(testEvent(3, "payment_completed")))

	events, err := recents.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, int64(3), events[0].ID)
	assert.Equal(t, int64(2), events[1].ID)
	assert.Equal(t, int64(1), events[2].ID)
}

func TestRecentEventsHonorsLimit(t *testing.T) {
	recents := openTestCache(t)

	for id := int64(1); id <= 5; id++ {
		require.NoError(t, recents.Store(testEvent(id, "lead_captured")))
	}

	events, err := recents.Recent(2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(5), events[0].ID)
	assert.Equal(t, int64(4), events[1].ID)
}

func TestRecentEventsEmpty(t *testing.T) {
	recents := openTestCache(t)

	events, err := recents.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
