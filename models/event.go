package models

import (
	"errors"
	"time"
)

// ClockEvent represents the structure for retrieving clock event records.
type ClockEvent struct {
	ID            int64                  `json:"id"`
	EventType     string                 `json:"event_type"`
	EventValue    *float64               `json:"event_value,omitempty"`
	Currency      string                 `json:"currency"`
	CustomerEmail string                 `json:"customer_email,omitempty"`
	CustomerName  string                 `json:"customer_name,omitempty"`
	CustomerPhone string                 `json:"customer_phone,omitempty"`
	SourceID      int                    `json:"source_id"`
	SourceName    string                 `json:"source_name,omitempty"`
	ExternalID    string                 `json:"external_id,omitempty"`
	EventData     map[string]interface{} `json:"event_data"`
	SessionID     string                 `json:"session_id,omitempty"`
	UserAgent     string                 `json:"user_agent,omitempty"`
	IPAddress     string                 `json:"ip_address,omitempty"`
	DeviceType    string                 `json:"device_type,omitempty"`
	OS            string                 `json:"os,omitempty"`
	Browser       string                 `json:"browser,omitempty"`
	UTMSource     string                 `json:"utm_source,omitempty"`
	UTMMedium     string                 `json:"utm_medium,omitempty"`
	UTMCampaign   string                 `json:"utm_campaign,omitempty"`
	Country       string                 `json:"country,omitempty"`
	City          string                 `json:"city,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// ClockEventReceiver holds the inbound ingestion payload. Network metadata
// (ip address, user agent) is derived from the request, never read from here.
type ClockEventReceiver struct {
	EventType     string                 `json:"event_type"`
	EventValue    *float64               `json:"event_value"`
	Currency      string                 `json:"currency"`
	CustomerEmail string                 `json:"customer_email"`
	CustomerName  string                 `json:"customer_name"`
	CustomerPhone string                 `json:"customer_phone"`
	SourceName    string                 `json:"source_name"`
	SourceType    string                 `json:"source_type"`
	ExternalID    string                 `json:"external_id"`
	EventData     map[string]interface{} `json:"event_data"`
	SessionID     string                 `json:"session_id"`
	UTMSource     string                 `json:"utm_source"`
	UTMMedium     string                 `json:"utm_medium"`
	UTMCampaign   string                 `json:"utm_campaign"`
	Country       string                 `json:"country"`
	City          string                 `json:"city"`
}

func (e *ClockEventReceiver) Validate() error {
	if e.EventType == "" {
		return errors.New("event_type is required")
	}
	return nil
}

// ApplyDefaults fills the documented defaults for omitted optional fields.
func (e *ClockEventReceiver) ApplyDefaults() {
	if e.Currency == "" {
		e.Currency = "EUR"
	}
	if e.SourceName == "" {
		e.SourceName = "EXTERNAL_API"
	}
	if e.SourceType == "" {
		e.SourceType = "external_api"
	}
	if e.EventData == nil {
		e.EventData = map[string]interface{}{}
	}
}

// ClockEventInsert represents the structure for inserting new clock event
// records. The id and timestamp are assigned by the database.
type ClockEventInsert struct {
	EventType     string                 `json:"event_type"`
	EventValue    *float64               `json:"event_value"`
	Currency      string                 `json:"currency"`
	CustomerEmail string                 `json:"customer_email"`
	CustomerName  string                 `json:"customer_name"`
	CustomerPhone string                 `json:"customer_phone"`
	SourceID      int                    `json:"source_id"`
	ExternalID    string                 `json:"external_id"`
	EventData     map[string]interface{} `json:"event_data"`
	SessionID     string                 `json:"session_id"`
	UserAgent     string                 `json:"user_agent"`
	IPAddress     string                 `json:"ip_address"`
	DeviceType    string                 `json:"device_type"`
	OS            string                 `json:"os"`
	Browser       string                 `json:"browser"`
	UTMSource     string                 `json:"utm_source"`
	UTMMedium     string                 `json:"utm_medium"`
	UTMCampaign   string                 `json:"utm_campaign"`
	Country       string                 `json:"country"`
	City          string                 `json:"city"`
}
