package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mileusna/useragent"
	"github.com/oschwald/geoip2-golang"

	"github.com/melanoai/event-clocking/cache"
	"github.com/melanoai/event-clocking/models"
	"github.com/melanoai/event-clocking/services"
	"github.com/melanoai/event-clocking/stream"
	"github.com/melanoai/event-clocking/utils"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 200
)

// CreateClockEvent is the ingestion endpoint. It validates the payload,
// resolves (or auto-registers) the source, appends the event, broadcasts it
// to live dashboard sessions and caches it best-effort. Submitting the same
// logical event twice creates two rows: there is no dedup on external_id.
func CreateClockEvent(db *sql.DB, geoipDB *geoip2.Reader, hub *stream.Hub, recents *cache.RecentEvents) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var receiver models.ClockEventReceiver
		err := json.NewDecoder(r.Body).Decode(&receiver)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, errors.New("invalid JSON body"))
			return
		}

		if err := receiver.Validate(); err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		receiver.ApplyDefaults()

		sourceID, err := services.ResolveOrCreateSource(db, receiver.SourceName, receiver.SourceType)
		if err != nil {
			log.Println("Error resolving source", err)
			utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to record event"))
			return
		}

		// Network metadata comes from the request, never from the payload
		ipAddress := utils.GetIPAddress(r)
		userAgent := r.UserAgent()
		ua := useragent.Parse(userAgent)

		country := receiver.Country
		city := receiver.City
		if geoipDB != nil && (country == "" || city == "") {
			if parsedIP := net.ParseIP(ipAddress); parsedIP != nil {
				if record, err := geoipDB.City(parsedIP); err == nil {
					location := utils.GetLocationInfo(record)
					if country == "" {
						country = location.Country
					}
					if city == "" {
						city = location.City
					}
				}
			}
		}

		insert := models.ClockEventInsert{
			EventType:     receiver.EventType,
			EventValue:    receiver.EventValue,
			Currency:      receiver.Currency,
			CustomerEmail: receiver.CustomerEmail,
			CustomerName:  receiver.CustomerName,
			CustomerPhone: receiver.CustomerPhone,
			SourceID:      sourceID,
			ExternalID:    receiver.ExternalID,
			EventData:     receiver.EventData,
			SessionID:     receiver.SessionID,
			UserAgent:     userAgent,
			IPAddress:     ipAddress,
			DeviceType:    utils.GetDeviceType(&ua),
			OS:            ua.OS,
			Browser:       ua.Name,
			UTMSource:     receiver.UTMSource,
			UTMMedium:     receiver.UTMMedium,
			UTMCampaign:   receiver.UTMCampaign,
			Country:       country,
			City:          city,
		}

		eventID, timestamp, err := services.InsertClockEvent(db, insert)
		if err != nil {
			log.Println("Error inserting clock event", err)
			utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to record event"))
			return
		}

		event := models.ClockEvent{
			ID:            eventID,
			EventType:     insert.EventType,
			EventValue:    insert.EventValue,
			Currency:      insert.Currency,
			CustomerEmail: insert.CustomerEmail,
			CustomerName:  insert.CustomerName,
			CustomerPhone: insert.CustomerPhone,
			SourceID:      sourceID,
			SourceName:    receiver.SourceName,
			ExternalID:    insert.ExternalID,
			EventData:     insert.EventData,
			SessionID:     insert.SessionID,
			UserAgent:     insert.UserAgent,
			IPAddress:     insert.IPAddress,
			DeviceType:    insert.DeviceType,
			OS:            insert.OS,
			Browser:       insert.Browser,
			UTMSource:     insert.UTMSource,
			UTMMedium:     insert.UTMMedium,
			UTMCampaign:   insert.UTMCampaign,
			Country:       insert.Country,
			City:          insert.City,
			Timestamp:     timestamp,
		}

		// Fan out to live dashboard sessions. A single slow client is the
		// hub's problem, never this request's.
		if message, err := stream.NewEventMessage(event); err == nil {
			hub.Broadcast(message)
		} else {
			log.Println("Error marshalling broadcast frame:", err)
		}

		// Best-effort cache write; failure is logged, never propagated
		if recents != nil {
			if err := recents.Store(event); err != nil {
				log.Println("Error caching recent event:", err)
			}
		}

		jsonResponse, err := json.Marshal(map[string]interface{}{
			"success":   true,
			"event_id":  eventID,
			"timestamp": timestamp.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			log.Println("Error encoding JSON:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write(jsonResponse)
	}
}

// GetRecentEvents returns the newest events, optionally filtered by exact
// source name and/or event type.
func GetRecentEvents(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		limit := defaultRecentLimit
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil || parsed <= 0 {
				utils.WriteErrorResponse(w, http.StatusBadRequest, errors.New("limit must be a positive number"))
				return
			}
			limit = parsed
		}
		if limit > maxRecentLimit {
			limit = maxRecentLimit
		}

		query := `
			SELECT e.id, e.event_type, e.event_value, e.currency,
				COALESCE(e.customer_email, ''), COALESCE(e.customer_name, ''), COALESCE(e.customer_phone, ''),
				e.source_id, s.name, COALESCE(e.external_id, ''), e.event_data, COALESCE(e.session_id, ''),
				COALESCE(e.user_agent, ''), COALESCE(e.ip_address, ''), COALESCE(e.device_type, ''),
				COALESCE(e.os, ''), COALESCE(e.browser, ''), COALESCE(e.utm_source, ''), COALESCE(e.utm_medium, ''),
				COALESCE(e.utm_campaign, ''), COALESCE(e.country, ''), COALESCE(e.city, ''), e.timestamp
			FROM clock_events e
			JOIN event_sources s ON s.id = e.source_id
		`
		var args []interface{}
		if source := r.URL.Query().Get("source"); source != "" {
			args = append(args, source)
			query += " WHERE s.name = $1"
		}
		if eventType := r.URL.Query().Get("event_type"); eventType != "" {
			args = append(args, eventType)
			if len(args) == 1 {
				query += " WHERE e.event_type = $1"
			} else {
				query += " AND e.event_type = $2"
			}
		}
		args = append(args, limit)
		query += " ORDER BY e.timestamp DESC LIMIT $" + strconv.Itoa(len(args))

		rows, err := db.Query(query, args...)
		if err != nil {
			log.Println("Error querying recent events:", err)
			utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to fetch events"))
			return
		}
		defer rows.Close()

		events := []models.ClockEvent{}
		for rows.Next() {
			var event models.ClockEvent
			var eventValue sql.NullFloat64
			var eventData []byte
			err := rows.Scan(
				&event.ID, &event.EventType, &eventValue, &event.Currency,
				&event.CustomerEmail, &event.CustomerName, &event.CustomerPhone,
				&event.SourceID, &event.SourceName, &event.ExternalID, &eventData, &event.SessionID,
				&event.UserAgent, &event.IPAddress, &event.DeviceType,
				&event.OS, &event.Browser, &event.UTMSource, &event.UTMMedium,
				&event.UTMCampaign, &event.Country, &event.City, &event.Timestamp,
			)
			if err != nil {
				log.Println("Error scanning event:", err)
				utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to fetch events"))
				return
			}
			if eventValue.Valid {
				event.EventValue = &eventValue.Float64
			}
			if len(eventData) > 0 {
				if err := json.Unmarshal(eventData, &event.EventData); err != nil {
					log.Println("Error decoding event data:", err)
				}
			}
			events = append(events, event)
		}

		if err := rows.Err(); err != nil {
			log.Println("Error iterating events:", err)
			utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to fetch events"))
			return
		}

		jsonResponse, err := json.Marshal(map[string]interface{}{
			"success": true,
			"events":  events,
			"count":   len(events),
		})
		if err != nil {
			log.Println("Error encoding JSON:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(jsonResponse)
	}
}

// GetCachedEvents exposes the best-effort buffer for ops visibility. It can
// lag or miss events; the database-backed recent read is authoritative. With
// the cache disabled the endpoint stays up and serves an empty list.
func GetCachedEvents(recents *cache.RecentEvents) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		limit := defaultRecentLimit
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil || parsed <= 0 {
				utils.WriteErrorResponse(w, http.StatusBadRequest, errors.New("limit must be a positive number"))
				return
			}
			limit = parsed
		}
		if limit > maxRecentLimit {
			limit = maxRecentLimit
		}

		if recents == nil {
			jsonResponse, err := json.Marshal(map[string]interface{}{
				"success": true,
				"events":  []models.ClockEvent{},
				"count":   0,
			})
			if err != nil {
				log.Println("Error encoding JSON:", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(jsonResponse)
			return
		}

		events, err := recents.Recent(limit)
		if err != nil {
			log.Println("Error reading cached events:", err)
			utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to read cache"))
			return
		}
		if events == nil {
			events = []models.ClockEvent{}
		}

		jsonResponse, err := json.Marshal(map[string]interface{}{
			"success": true,
			"events":  events,
			"count":   len(events),
		})
		if err != nil {
			log.Println("Error encoding JSON:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(jsonResponse)
	}
}
