package services

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/melanoai/event-clocking/models"
)

// InsertClockEvent appends one event row and returns the server-assigned id
// and timestamp. Events are immutable once written; there is no update or
// delete path anywhere in this service.
func InsertClockEvent(db *sql.DB, event models.ClockEventInsert) (int64, time.Time, error) {
	eventData, err := json.Marshal(event.EventData)
	if err != nil {
		return 0, time.Time{}, err
	}

	insertQuery := `
		INSERT INTO clock_events
			(event_type, event_value, currency, customer_email, customer_name, customer_phone, source_id, external_id, event_data, session_id, user_agent, ip_address, device_type, os, browser, utm_source, utm_medium, utm_campaign, country, city)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, timestamp
	`

	var id int64
	var timestamp time.Time
	err = db.QueryRow(insertQuery,
		event.EventType,
		event.EventValue,
		event.Currency,
		event.CustomerEmail,
		event.CustomerName,
		event.CustomerPhone,
		event.SourceID,
		event.ExternalID,
		eventData,
		event.SessionID,
		event.UserAgent,
		event.IPAddress,
		event.DeviceType,
		event.OS,
		event.Browser,
		event.UTMSource,
		event.UTMMedium,
		event.UTMCampaign,
		event.Country,
		event.City,
	).Scan(&id, &timestamp)
	if err != nil {
		return 0, time.Time{}, err
	}

	return id, timestamp, nil
}

// RecentWindowStats returns the event count over the last five minutes and
// the timestamp of the most recent event, for the stream heartbeat.
func RecentWindowStats(db *sql.DB) (int, *time.Time, error) {
	var count int
	var last sql.NullTime
	err := db.QueryRow("SELECT (SELECT COUNT(*) FROM clock_events WHERE timestamp > now() - interval '5 minutes'), (SELECT MAX(timestamp) FROM clock_events)").Scan(&count, &last)
	if err != nil {
		return 0, nil, err
	}
	if !last.Valid {
		return count, nil, nil
	}
	return count, &last.Time, nil
}
