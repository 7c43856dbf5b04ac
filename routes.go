package main

import (
	"database/sql"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"github.com/oschwald/geoip2-golang"

	"github.com/melanoai/event-clocking/cache"
	"github.com/melanoai/event-clocking/handlers"
	"github.com/melanoai/event-clocking/middleware"
	"github.com/melanoai/event-clocking/stream"
)

func SetupRouter(db *sql.DB, geoipDB *geoip2.Reader, cacheDB *badger.DB, hub *stream.Hub, recents *cache.RecentEvents) *mux.Router {

	router := mux.NewRouter()

	// ingestion route (open: producers are bots/forms with no token channel)
	router.HandleFunc("/api/clocking", handlers.CreateClockEvent(db, geoipDB, hub, recents)).Methods("POST")

	// dashboard read routes
	router.Handle("/api/clocking/recent", middleware.AuthMiddleware(handlers.GetRecentEvents(db))).Methods("GET")
	router.Handle("/api/clocking/analytics", middleware.AuthMiddleware(handlers.GetAnalytics(db))).Methods("GET")
	router.Handle("/api/clocking/dashboard", middleware.AuthMiddleware(handlers.GetDashboard(db))).Methods("GET")
	router.Handle("/api/clocking/cached", middleware.AuthMiddleware(handlers.GetCachedEvents(recents))).Methods("GET")

	// aggregation trigger
	router.Handle("/api/clocking/aggregate", middleware.AuthMiddleware(handlers.TriggerAggregation(db))).Methods("POST")

	// real-time push routes
	router.HandleFunc("/api/clocking/stream", handlers.StreamClockEvents(hub)).Methods("GET")
	router.HandleFunc("/api/clocking/ws", handlers.StreamClockEventsWS(hub)).Methods("GET")

	// health route
	router.HandleFunc("/health", handlers.HealthCheck(db, cacheDB)).Methods("GET")

	return router
}
