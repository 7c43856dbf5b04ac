package stream

import (
	"encoding/json"
	"time"

	"github.com/melanoai/event-clocking/models"
)

// Frame types pushed to dashboard sessions.
const (
	MessageTypeConnected   = "connected"
	MessageTypeNewEvent    = "new_event"
	MessageTypeStatsUpdate = "stats_update"
	MessageTypeSubscribed  = "subscribed"
)

// ConnectedMessage is the first frame on every stream connection.
func ConnectedMessage() []byte {
	msg, _ := json.Marshal(map[string]interface{}{
		"type":      MessageTypeConnected,
		"message":   "Real-time event stream connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	return msg
}

// NewEventMessage flattens the event fields beside the frame type, matching
// what dashboard clients expect from the ingest broadcast.
func NewEventMessage(event models.ClockEvent) ([]byte, error) {
	msg := struct {
		Type string `json:"type"`
		models.ClockEvent
	}{
		Type:       MessageTypeNewEvent,
		ClockEvent: event,
	}
	return json.Marshal(msg)
}

// StatsUpdateMessage is the periodic heartbeat frame.
func StatsUpdateMessage(recentEvents int, lastEvent *time.Time) []byte {
	var last interface{}
	if lastEvent != nil {
		last = lastEvent.UTC().Format(time.RFC3339)
	}
	msg, _ := json.Marshal(map[string]interface{}{
		"type":          MessageTypeStatsUpdate,
		"recent_events": recentEvents,
		"last_event":    last,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
	return msg
}

// SubscribedMessage acknowledges a client filter request. Filters are echoed
// back but not enforced server-side; clients filter the stream themselves.
func SubscribedMessage(filters map[string]interface{}) []byte {
	msg, _ := json.Marshal(map[string]interface{}{
		"type":      MessageTypeSubscribed,
		"filters":   filters,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	return msg
}
