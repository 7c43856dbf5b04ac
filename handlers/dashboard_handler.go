package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/melanoai/event-clocking/models"
	"github.com/melanoai/event-clocking/services"
	"github.com/melanoai/event-clocking/utils"
)

// GetDashboard combines three independent reads: today's headline numbers,
// today's top sources and the all-time hot leads surfaced by the scoring job.
func GetDashboard(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var today models.TodayStats
		err := db.QueryRow(`
			SELECT COUNT(*),
				COUNT(*) FILTER (WHERE event_type = 'lead_captured'),
				COUNT(*) FILTER (WHERE event_type = 'payment_completed'),
				COALESCE(SUM(event_value) FILTER (WHERE event_type = 'payment_completed'), 0)
			FROM clock_events
			WHERE timestamp >= date_trunc('day', now())
		`).Scan(&today.TotalEvents, &today.LeadsToday, &today.SalesToday, &today.RevenueToday)
		if err != nil {
			log.Println("Error querying today stats:", err)
			utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to fetch dashboard data"))
			return
		}

		rows, err := db.Query(`
			SELECT s.name, COUNT(*),
				COUNT(*) FILTER (WHERE e.event_type = 'lead_captured'),
				COUNT(*) FILTER (WHERE e.event_type = 'payment_completed')
			FROM clock_events e
			JOIN event_sources s ON s.id = e.source_id
			WHERE e.timestamp >= date_trunc('day', now())
			GROUP BY s.name
			ORDER BY COUNT(*) DESC
			LIMIT 5
		`)
		if err != nil {
			log.Println("Error querying top sources:", err)
			utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to fetch dashboard data"))
			return
		}
		defer rows.Close()

		topSources := []models.TopSource{}
		for rows.Next() {
			var source models.TopSource
			if err := rows.Scan(&source.SourceName, &source.Events, &source.Leads, &source.Sales); err != nil {
				log.Println("Error scanning top source:", err)
				utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to fetch dashboard data"))
				return
			}
			topSources = append(topSources, source)
		}
		if err := rows.Err(); err != nil {
			log.Println("Error iterating top sources:", err)
			utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to fetch dashboard data"))
			return
		}

		leadRows, err := db.Query(`
			SELECT customer_email, COALESCE(customer_name, ''), score, lead_status, last_interaction
			FROM lead_scores
			WHERE score > 50
			ORDER BY score DESC, last_interaction DESC NULLS LAST
			LIMIT 10
		`)
		if err != nil {
			log.Println("Error querying hot leads:", err)
			utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to fetch dashboard data"))
			return
		}
		defer leadRows.Close()

		hotLeads := []models.HotLead{}
		for leadRows.Next() {
			var lead models.HotLead
			var lastInteraction sql.NullTime
			if err := leadRows.Scan(&lead.CustomerEmail, &lead.CustomerName, &lead.Score, &lead.LeadStatus, &lastInteraction); err != nil {
				log.Println("Error scanning hot lead:", err)
				utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to fetch dashboard data"))
				return
			}
			if lastInteraction.Valid {
				lead.LastInteraction = &lastInteraction.Time
			}
			hotLeads = append(hotLeads, lead)
		}
		if err := leadRows.Err(); err != nil {
			log.Println("Error iterating hot leads:", err)
			utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to fetch dashboard data"))
			return
		}

		jsonResponse, err := json.Marshal(map[string]interface{}{
			"success":     true,
			"today":       today,
			"top_sources": topSources,
			"hot_leads":   hotLeads,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
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

// GetAnalytics returns the newest rollup rows for one period granularity.
// The rollup table is a cache recomputed by aggregate_analytics; reads may
// observe slightly stale rows while ingestion continues.
func GetAnalytics(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		period := r.URL.Query().Get("period")
		if period == "" {
			period = "daily"
		}
		if err := services.ValidatePeriod(period); err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		query := `
			SELECT id, period_type, period_start, period_end, COALESCE(source_name, ''),
				total_events, leads_captured, leads_qualified, demos_scheduled,
				payments_completed, total_revenue, conversion_rate, event_type_breakdown
			FROM clocking_analytics
			WHERE period_type = $1
		`
		args := []interface{}{period}

		source := r.URL.Query().Get("source")
		if source != "" {
			args = append(args, source)
			query += " AND source_name = $2"
		}
		query += " ORDER BY period_start DESC LIMIT 30"

		rows, err := db.Query(query, args...)
		if err != nil {
			log.Println("Error querying analytics:", err)
			utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to fetch analytics"))
			return
		}
		defer rows.Close()

		analytics := []models.AnalyticsRollup{}
		for rows.Next() {
			var rollup models.AnalyticsRollup
			var breakdown []byte
			err := rows.Scan(
				&rollup.ID, &rollup.PeriodType, &rollup.PeriodStart, &rollup.PeriodEnd, &rollup.SourceName,
				&rollup.TotalEvents, &rollup.LeadsCaptured, &rollup.LeadsQualified, &rollup.DemosScheduled,
				&rollup.PaymentsCompleted, &rollup.TotalRevenue, &rollup.ConversionRate, &breakdown,
			)
			if err != nil {
				log.Println("Error scanning analytics row:", err)
				utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to fetch analytics"))
				return
			}
			if len(breakdown) > 0 {
				if err := json.Unmarshal(breakdown, &rollup.EventTypeBreakdown); err != nil {
					log.Println("Error decoding event type breakdown:", err)
				}
			}
			analytics = append(analytics, rollup)
		}
		if err := rows.Err(); err != nil {
			log.Println("Error iterating analytics:", err)
			utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("failed to fetch analytics"))
			return
		}

		jsonResponse, err := json.Marshal(map[string]interface{}{
			"success":   true,
			"analytics": analytics,
			"period":    period,
			"source":    source,
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

// TriggerAggregation invokes the in-database rollup recompute on demand.
func TriggerAggregation(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req struct {
			Period   string `json:"period"`
			SourceID *int   `json:"source_id"`
		}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				utils.WriteErrorResponse(w, http.StatusBadRequest, errors.New("invalid JSON body"))
				return
			}
		}
		if req.Period == "" {
			req.Period = "daily"
		}
		if err := services.ValidatePeriod(req.Period); err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		if err := services.RunAggregation(db, req.Period, req.SourceID); err != nil {
			log.Println("Error running aggregation:", err)
			utils.WriteErrorResponse(w, http.StatusInternalServerError, errors.New("aggregation failed"))
			return
		}

		jsonResponse, err := json.Marshal(map[string]interface{}{
			"success":   true,
			"message":   "Aggregation completed",
			"period":    req.Period,
			"source_id": req.SourceID,
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
