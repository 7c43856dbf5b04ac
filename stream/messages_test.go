package stream

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melanoai/event-clocking/models"
)

func TestNewEventMessageFlattensEventFields(t *testing.T) {
	value := 100.0
	frame, err := NewEventMessage(models.ClockEvent{
		ID:         42,
		EventType:  "payment_completed",
		EventValue: &value,
		Currency:   "EUR",
		SourceName: "WHATSAPP_BOT",
		EventData:  map[string]interface{}{"plan": "premium"},
		Timestamp:  time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(frame, &decoded))

	// event fields sit beside the frame type, not nested under a data key
	assert.Equal(t, "new_event", decoded["type"])
	assert.Equal(t, float64(42), decoded["id"])
	assert.Equal(t, "payment_completed", decoded["event_type"])
	assert.Equal(t, "WHATSAPP_BOT", decoded["source_name"])
	assert.NotContains(t, decoded, "data")
}

func TestConnectedMessage(t *testing.T) {
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(ConnectedMessage(), &decoded))
	assert.Equal(t, "connected", decoded["type"])
	assert.NotEmpty(t, decoded["timestamp"])
}

func TestStatsUpdateMessage(t *testing.T) {
	last := time.Date(2026, 8, 31, 9, 59, 0, 0, time.UTC)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(StatsUpdateMessage(5, &last), &decoded))
	assert.Equal(t, "stats_update", decoded["type"])
	assert.Equal(t, float64(5), decoded["recent_events"])
	assert.Equal(t, "2026-08-31T09:59:00Z", decoded["last_event"])

	require.NoError(t, json.Unmarshal(StatsUpdateMessage(0, nil), &decoded))
	assert.Nil(t, decoded["last_event"])
}
