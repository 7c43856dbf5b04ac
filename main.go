package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"

	"github.com/melanoai/event-clocking/cache"
	"github.com/melanoai/event-clocking/db"
	"github.com/melanoai/event-clocking/services"
	"github.com/melanoai/event-clocking/stream"
)

func main() {
	// load env variables; in containers they come from the environment itself
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	// db initialization
	postgresDB, err := db.CreatePostgresConnection()
	if err != nil {
		log.Fatal(err)
	}
	defer postgresDB.Close()

	// geoip is optional: without it events carry only payload-supplied locations
	geoipDB, err := db.CreateGeoIPConnection()
	if err != nil {
		log.Println("GeoIP database unavailable, location enrichment disabled:", err)
		geoipDB = nil
	} else {
		defer geoipDB.Close()
	}

	cacheDB, err := db.CreateCacheConnection()
	if err != nil {
		log.Println("Recent-events cache unavailable, continuing without it:", err)
		cacheDB = nil
	} else {
		defer cacheDB.Close()
	}

	var recents *cache.RecentEvents
	if cacheDB != nil {
		recents = cache.NewRecentEvents(cacheDB)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// real-time fan-out hub plus its 30s heartbeat
	hub := stream.NewHub()
	go hub.Run(ctx)
	services.StartStatsHeartbeat(ctx, postgresDB, hub, 30*time.Second)

	// periodic rollup recompute (0 disables)
	services.StartAggregationScheduler(ctx, postgresDB, aggregateInterval())

	// router
	router := SetupRouter(postgresDB, geoipDB, cacheDB, hub, recents)

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		if parsed, err := strconv.Atoi(portStr); err == nil {
			port = parsed
		}
	}
	address := fmt.Sprintf(":%d", port)

	log.Printf("Server is listening on port %d...\n", port)

	err = http.ListenAndServe(address, handlers.CORS( // cors config
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(router))
	if err != nil {
		log.Fatalf("Failed to start server: %v\n", err)
	}
}

func aggregateInterval() time.Duration {
	raw := os.Getenv("CLOCKING_AGGREGATE_INTERVAL")
	if raw == "" {
		return time.Hour
	}
	interval, err := time.ParseDuration(raw)
	if err != nil {
		log.Println("Invalid CLOCKING_AGGREGATE_INTERVAL, falling back to 1h:", err)
		return time.Hour
	}
	return interval
}
