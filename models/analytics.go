package models

import "time"

// AnalyticsRollup is one precomputed aggregate row, fully replaced per
// (period_type, period bucket, source) by the aggregate_analytics function.
type AnalyticsRollup struct {
	ID                 int            `json:"id"`
	PeriodType         string         `json:"period_type"`
	PeriodStart        time.Time      `json:"period_start"`
	PeriodEnd          time.Time      `json:"period_end"`
	SourceName         string         `json:"source_name,omitempty"` // empty = all sources
	TotalEvents        int            `json:"total_events"`
	LeadsCaptured      int            `json:"leads_captured"`
	LeadsQualified     int            `json:"leads_qualified"`
	DemosScheduled     int            `json:"demos_scheduled"`
	PaymentsCompleted  int            `json:"payments_completed"`
	TotalRevenue       float64        `json:"total_revenue"`
	ConversionRate     float64        `json:"conversion_rate"`
	EventTypeBreakdown map[string]int `json:"event_type_breakdown"`
}

type TodayStats struct {
	TotalEvents  int     `json:"total_events"`
	LeadsToday   int     `json:"leads_today"`
	SalesToday   int     `json:"sales_today"`
	RevenueToday float64 `json:"revenue_today"`
}

type TopSource struct {
	SourceName string `json:"source_name"`
	Events     int    `json:"events"`
	Leads      int    `json:"leads"`
	Sales      int    `json:"sales"`
}

// HotLead rows are written by the scoring job, read-only here.
type HotLead struct {
	CustomerEmail   string     `json:"customer_email"`
	CustomerName    string     `json:"customer_name,omitempty"`
	Score           int        `json:"score"`
	LeadStatus      string     `json:"lead_status"`
	LastInteraction *time.Time `json:"last_interaction,omitempty"`
}
